package schema

// Contract is the static reference record for one tradable instrument.
// The core never mutates contracts; they are looked up by ticker or by the
// stable TickerID index assigned when the table is built.
type Contract struct {
	Ticker      string
	Exchange    string
	Name        string
	ProductType ProductType

	// Size is the contract multiplier: notional per lot = price * Size.
	Size      int
	PriceTick float64

	LongMarginRate  float64
	ShortMarginRate float64

	MaxMarketOrderVolume int
	MinMarketOrderVolume int
	MaxLimitOrderVolume  int
	MinLimitOrderVolume  int

	// TickerID is the local index inside the contract table.
	TickerID uint32
}

// MarginRate returns the margin rate for the given direction.
func (c *Contract) MarginRate(d Direction) float64 {
	if d == DirectionSell {
		return c.ShortMarginRate
	}
	return c.LongMarginRate
}
