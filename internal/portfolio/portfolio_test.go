package portfolio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"main/internal/contracts"
	"main/internal/schema"
)

func newTestTable(t *testing.T) *contracts.Table {
	t.Helper()
	table, err := contracts.NewTable([]schema.Contract{
		{Ticker: "510050", Exchange: "SH", Size: 1, LongMarginRate: 1, ShortMarginRate: 1},
		{Ticker: "IF2409", Exchange: "CFFEX", Size: 300, LongMarginRate: 0.12, ShortMarginRate: 0.12},
	})
	require.NoError(t, err)
	return table
}

func TestOpenRoundTrip(t *testing.T) {
	p := New(newTestTable(t))

	p.UpdatePending(1, schema.DirectionBuy, schema.OffsetOpen, 10)
	long := &p.Position(1).Long
	require.Equal(t, 10, long.OpenPending)

	p.UpdateTraded(1, schema.DirectionBuy, schema.OffsetOpen, 10, 10.0)
	require.Equal(t, 0, long.OpenPending)
	require.Equal(t, 10, long.Holdings)
	require.InDelta(t, 10.0, long.CostPrice, 1e-9)

	// A second open at a different price moves the weighted average.
	p.UpdatePending(1, schema.DirectionBuy, schema.OffsetOpen, 10)
	p.UpdateTraded(1, schema.DirectionBuy, schema.OffsetOpen, 10, 20.0)
	require.Equal(t, 20, long.Holdings)
	require.InDelta(t, 15.0, long.CostPrice, 1e-9)
}

func TestCloseRoundTripLeavesFlat(t *testing.T) {
	p := New(newTestTable(t))

	p.UpdatePending(1, schema.DirectionBuy, schema.OffsetOpen, 10)
	p.UpdateTraded(1, schema.DirectionBuy, schema.OffsetOpen, 10, 10.0)

	// Selling with a close offset consumes the long side.
	p.UpdatePending(1, schema.DirectionSell, schema.OffsetClose, 10)
	long := &p.Position(1).Long
	require.Equal(t, 10, long.ClosePending)

	p.UpdateTraded(1, schema.DirectionSell, schema.OffsetClose, 10, 11.0)
	require.Equal(t, 0, long.ClosePending)
	require.Equal(t, 0, long.Holdings)
	require.Zero(t, long.CostPrice)
	require.Zero(t, long.FloatPnl)
}

func TestCloseConsumesYesterdayFirst(t *testing.T) {
	p := New(newTestTable(t))
	p.InitPosition(schema.Position{
		TickerID: 1,
		Long:     schema.PositionDetail{Holdings: 10, YdHoldings: 4, ClosePending: 6},
	})

	p.UpdateTraded(1, schema.DirectionSell, schema.OffsetClose, 6, 10.0)
	long := &p.Position(1).Long
	require.Equal(t, 4, long.Holdings)
	require.Equal(t, 0, long.YdHoldings)
}

func TestCloseTodayKeepsYesterday(t *testing.T) {
	p := New(newTestTable(t))
	p.InitPosition(schema.Position{
		TickerID: 1,
		Long:     schema.PositionDetail{Holdings: 10, YdHoldings: 4, ClosePending: 3},
	})

	p.UpdateTraded(1, schema.DirectionSell, schema.OffsetCloseToday, 3, 10.0)
	long := &p.Position(1).Long
	require.Equal(t, 7, long.Holdings)
	require.Equal(t, 4, long.YdHoldings)
}

func TestNegativePendingClamped(t *testing.T) {
	p := New(newTestTable(t))

	p.UpdatePending(1, schema.DirectionBuy, schema.OffsetOpen, -5)
	require.Equal(t, 0, p.Position(1).Long.OpenPending)
}

func TestOverCloseClampedToZero(t *testing.T) {
	p := New(newTestTable(t))
	p.InitPosition(schema.Position{
		TickerID: 1,
		Long:     schema.PositionDetail{Holdings: 3, YdHoldings: 3},
	})

	p.UpdateTraded(1, schema.DirectionSell, schema.OffsetClose, 5, 10.0)
	long := &p.Position(1).Long
	require.Equal(t, 0, long.Holdings)
	require.Equal(t, 0, long.YdHoldings)
}

func TestPurchaseAndRedeem(t *testing.T) {
	p := New(newTestTable(t))

	p.UpdatePending(1, schema.DirectionPurchase, schema.OffsetOpen, 10)
	p.UpdateTraded(1, schema.DirectionPurchase, schema.OffsetOpen, 10, 0)
	long := &p.Position(1).Long
	require.Equal(t, 10, long.Holdings)
	require.Equal(t, 10, long.YdHoldings)

	p.UpdatePending(1, schema.DirectionRedeem, schema.OffsetOpen, 4)
	p.UpdateTraded(1, schema.DirectionRedeem, schema.OffsetOpen, 4, 0)
	require.Equal(t, 6, long.Holdings)
	require.Equal(t, 6, long.YdHoldings)
}

func TestComponentStock(t *testing.T) {
	p := New(newTestTable(t))

	p.UpdateComponentStock(1, 100, true)
	long := &p.Position(1).Long
	require.Equal(t, 100, long.Holdings)
	require.Equal(t, 100, long.YdHoldings)

	p.UpdateComponentStock(1, 30, false)
	require.Equal(t, 70, long.Holdings)
	require.Equal(t, 70, long.YdHoldings)
}

func TestFloatPnl(t *testing.T) {
	p := New(newTestTable(t))
	p.InitPosition(schema.Position{
		TickerID: 2,
		Long:     schema.PositionDetail{Holdings: 10, YdHoldings: 10, CostPrice: 100},
		Short:    schema.PositionDetail{Holdings: 5, YdHoldings: 5, CostPrice: 110},
	})

	p.UpdateFloatPnl(2, 105)
	pos := p.Position(2)
	require.InDelta(t, 10*300*5.0, pos.Long.FloatPnl, 1e-9)
	require.InDelta(t, 5*300*5.0, pos.Short.FloatPnl, 1e-9)
}

func TestInitPositionDuplicateIgnored(t *testing.T) {
	p := New(newTestTable(t))

	p.InitPosition(schema.Position{TickerID: 1, Long: schema.PositionDetail{Holdings: 5}})
	p.InitPosition(schema.Position{TickerID: 1, Long: schema.PositionDetail{Holdings: 99}})
	require.Equal(t, 5, p.Position(1).Long.Holdings)
}
