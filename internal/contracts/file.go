package contracts

import (
	"os"

	"github.com/yanun0323/errors"
	"gopkg.in/yaml.v3"

	"main/internal/schema"
)

// fileEntry mirrors one contract record in the YAML contract file.
type fileEntry struct {
	Ticker          string  `yaml:"ticker"`
	Exchange        string  `yaml:"exchange"`
	Name            string  `yaml:"name"`
	ProductType     string  `yaml:"productType"`
	Size            int     `yaml:"size"`
	PriceTick       float64 `yaml:"priceTick"`
	LongMarginRate  float64 `yaml:"longMarginRate"`
	ShortMarginRate float64 `yaml:"shortMarginRate"`
	MaxMarketVolume int     `yaml:"maxMarketOrderVolume"`
	MinMarketVolume int     `yaml:"minMarketOrderVolume"`
	MaxLimitVolume  int     `yaml:"maxLimitOrderVolume"`
	MinLimitVolume  int     `yaml:"minLimitOrderVolume"`
}

type fileLayout struct {
	Contracts []fileEntry `yaml:"contracts"`
}

// LoadFile builds a contract table from a YAML contract file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read contract file")
	}

	var layout fileLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, errors.Wrap(err, "parse contract file")
	}

	list := make([]schema.Contract, 0, len(layout.Contracts))
	for _, e := range layout.Contracts {
		list = append(list, schema.Contract{
			Ticker:               e.Ticker,
			Exchange:             e.Exchange,
			Name:                 e.Name,
			ProductType:          parseProductType(e.ProductType),
			Size:                 e.Size,
			PriceTick:            e.PriceTick,
			LongMarginRate:       e.LongMarginRate,
			ShortMarginRate:      e.ShortMarginRate,
			MaxMarketOrderVolume: e.MaxMarketVolume,
			MinMarketOrderVolume: e.MinMarketVolume,
			MaxLimitOrderVolume:  e.MaxLimitVolume,
			MinLimitOrderVolume:  e.MinLimitVolume,
		})
	}
	return NewTable(list)
}

func parseProductType(s string) schema.ProductType {
	switch s {
	case "futures":
		return schema.ProductTypeFutures
	case "options":
		return schema.ProductTypeOptions
	case "stock":
		return schema.ProductTypeStock
	case "fund":
		return schema.ProductTypeFund
	default:
		return schema.ProductTypeUnknown
	}
}
