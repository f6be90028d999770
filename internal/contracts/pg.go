package contracts

import (
	"fmt"
	"net/url"

	"github.com/yanun0323/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"main/internal/schema"
)

const (
	defaultPostgresHost    = "localhost"
	defaultPostgresPort    = 5432
	defaultPostgresSSLMode = "disable"
)

// PostgresOption defines the connection options for a contract database.
type PostgresOption struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	ConnString string
	TableName  string
}

// contractRow maps the reference table schema in Postgres.
type contractRow struct {
	Ticker          string  `gorm:"column:ticker"`
	Exchange        string  `gorm:"column:exchange"`
	Name            string  `gorm:"column:name"`
	ProductType     string  `gorm:"column:product_type"`
	Size            int     `gorm:"column:size"`
	PriceTick       float64 `gorm:"column:price_tick"`
	LongMarginRate  float64 `gorm:"column:long_margin_rate"`
	ShortMarginRate float64 `gorm:"column:short_margin_rate"`
	MaxMarketVolume int     `gorm:"column:max_market_order_volume"`
	MinMarketVolume int     `gorm:"column:min_market_order_volume"`
	MaxLimitVolume  int     `gorm:"column:max_limit_order_volume"`
	MinLimitVolume  int     `gorm:"column:min_limit_order_volume"`
}

// LoadPostgres builds a contract table from a Postgres reference table.
func LoadPostgres(opt PostgresOption) (*Table, error) {
	dsn, err := opt.dsn()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "open contract database")
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	tableName := opt.TableName
	if tableName == "" {
		tableName = "contracts"
	}

	var rows []contractRow
	if err := db.Table(tableName).Order("ticker").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query contract table")
	}

	list := make([]schema.Contract, 0, len(rows))
	for _, r := range rows {
		list = append(list, schema.Contract{
			Ticker:               r.Ticker,
			Exchange:             r.Exchange,
			Name:                 r.Name,
			ProductType:          parseProductType(r.ProductType),
			Size:                 r.Size,
			PriceTick:            r.PriceTick,
			LongMarginRate:       r.LongMarginRate,
			ShortMarginRate:      r.ShortMarginRate,
			MaxMarketOrderVolume: r.MaxMarketVolume,
			MinMarketOrderVolume: r.MinMarketVolume,
			MaxLimitOrderVolume:  r.MaxLimitVolume,
			MinLimitOrderVolume:  r.MinLimitVolume,
		})
	}
	return NewTable(list)
}

func (opt PostgresOption) dsn() (string, error) {
	if opt.ConnString != "" {
		return opt.ConnString, nil
	}
	if opt.Database == "" {
		return "", errors.New("contract database name is empty")
	}

	host := opt.Host
	if host == "" {
		host = defaultPostgresHost
	}
	port := opt.Port
	if port == 0 {
		port = defaultPostgresPort
	}
	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultPostgresSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + opt.Database,
	}
	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()

	return u.String(), nil
}
