package risk

import (
	"testing"

	"main/internal/contracts"
	"main/internal/portfolio"
	"main/internal/schema"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	table, err := contracts.NewTable([]schema.Contract{
		{Ticker: "510050", Exchange: "SH", Size: 1, LongMarginRate: 1, ShortMarginRate: 1},
		{Ticker: "IF2409", Exchange: "CFFEX", Size: 300, LongMarginRate: 0.12, ShortMarginRate: 0.12},
	})
	if err != nil {
		t.Fatalf("build contract table: %v", err)
	}
	return &Context{
		Account:   &schema.Account{AccountID: "test", Cash: 1_000_000, TotalAsset: 1_000_000},
		Portfolio: portfolio.New(table),
		Orders:    make(map[uint64]*schema.Order),
		Contracts: table,
	}
}

var nextTestOrderID uint64

func newTestOrder(ctx *Context, tickerID uint32, dir schema.Direction, off schema.Offset, typ schema.OrderType, volume int, price float64) *schema.Order {
	nextTestOrderID++
	return &schema.Order{
		Req: schema.OrderRequest{
			OrderID:   nextTestOrderID,
			Contract:  ctx.Contracts.ByIndex(tickerID),
			Direction: dir,
			Offset:    off,
			Type:      typ,
			Volume:    volume,
			Price:     price,
		},
		StrategyID: "alpha",
	}
}
