// Package portfolio is the single source of truth for position state. All
// mutation is expressed as pending/traded transitions keyed by
// (instrument, direction, offset); the coordinator serializes every call
// under its lock.
package portfolio

import (
	"github.com/yanun0323/logs"

	"main/internal/contracts"
	"main/internal/schema"
)

// Portfolio owns the per-instrument position table. Positions are created
// lazily on first reference and never deleted; a flat position is
// represented, not removed.
type Portfolio struct {
	contracts *contracts.Table
	positions map[uint32]*schema.Position
}

// New creates an empty portfolio backed by the given contract table.
func New(table *contracts.Table) *Portfolio {
	return &Portfolio{
		contracts: table,
		positions: make(map[uint32]*schema.Position),
	}
}

// InitPosition seeds the table at startup from a gateway query. A second
// seed for the same instrument is logged and ignored.
func (p *Portfolio) InitPosition(pos schema.Position) {
	if _, ok := p.positions[pos.TickerID]; ok {
		logs.Warnf("position already initialized, ignored. ticker_id: %d", pos.TickerID)
		return
	}
	cloned := pos
	p.positions[pos.TickerID] = &cloned
}

// Position returns the position for an instrument, or nil when it has
// never been touched. The returned pointer is borrowed; callers must hold
// the coordinator lock and must not retain it.
func (p *Portfolio) Position(tickerID uint32) *schema.Position {
	return p.positions[tickerID]
}

func (p *Portfolio) get(tickerID uint32) *schema.Position {
	pos, ok := p.positions[tickerID]
	if !ok {
		pos = &schema.Position{TickerID: tickerID}
		p.positions[tickerID] = pos
	}
	return pos
}

// UpdatePending records volume committed to (delta > 0) or released from
// (delta < 0) a working order.
func (p *Portfolio) UpdatePending(tickerID uint32, direction schema.Direction, offset schema.Offset, delta int) {
	if delta == 0 {
		return
	}

	switch direction {
	case schema.DirectionBuy, schema.DirectionSell:
		p.updateBuyOrSellPending(tickerID, direction, offset, delta)
	case schema.DirectionPurchase, schema.DirectionRedeem:
		p.updatePurchaseOrRedeemPending(tickerID, direction, delta)
	}
}

func (p *Portfolio) updateBuyOrSellPending(tickerID uint32, direction schema.Direction, offset schema.Offset, delta int) {
	isClose := offset.IsClose()
	if isClose {
		direction = direction.Opposite()
	}

	detail := p.get(tickerID).Detail(direction)
	if isClose {
		detail.ClosePending += delta
	} else {
		detail.OpenPending += delta
	}
	p.clampPending(tickerID, detail)
}

func (p *Portfolio) updatePurchaseOrRedeemPending(tickerID uint32, direction schema.Direction, delta int) {
	detail := &p.get(tickerID).Long
	if direction == schema.DirectionPurchase {
		detail.OpenPending += delta
	} else {
		detail.ClosePending += delta
	}
	p.clampPending(tickerID, detail)
}

func (p *Portfolio) clampPending(tickerID uint32, detail *schema.PositionDetail) {
	// Negative pendings mean events raced a position snapshot; favor
	// availability and self-heal instead of aborting.
	if detail.OpenPending < 0 {
		logs.Warnf("open_pending corrected to 0. ticker_id: %d, was: %d", tickerID, detail.OpenPending)
		detail.OpenPending = 0
	}
	if detail.ClosePending < 0 {
		logs.Warnf("close_pending corrected to 0. ticker_id: %d, was: %d", tickerID, detail.ClosePending)
		detail.ClosePending = 0
	}
}

// UpdateTraded settles a partial or full fill into the position table.
func (p *Portfolio) UpdateTraded(tickerID uint32, direction schema.Direction, offset schema.Offset, traded int, tradedPrice float64) {
	if traded <= 0 {
		return
	}

	switch direction {
	case schema.DirectionBuy, schema.DirectionSell:
		p.updateBuyOrSell(tickerID, direction, offset, traded, tradedPrice)
	case schema.DirectionPurchase, schema.DirectionRedeem:
		p.updatePurchaseOrRedeem(tickerID, direction, traded)
	}
}

func (p *Portfolio) updateBuyOrSell(tickerID uint32, direction schema.Direction, offset schema.Offset, traded int, tradedPrice float64) {
	isClose := offset.IsClose()
	if isClose {
		direction = direction.Opposite()
	}

	detail := p.get(tickerID).Detail(direction)
	if isClose {
		detail.ClosePending -= traded
		detail.Holdings -= traded
		// The generic close offset also consumes yesterday volume, to
		// tolerate exchanges that do not distinguish today/yesterday.
		if offset == schema.OffsetCloseYesterday || offset == schema.OffsetClose {
			detail.YdHoldings -= min(detail.YdHoldings, traded)
		}
		if detail.Holdings < detail.YdHoldings {
			logs.Warnf("yd holdings forced down to holdings. ticker_id: %d, yd: %d, holdings: %d",
				tickerID, detail.YdHoldings, detail.Holdings)
			detail.YdHoldings = detail.Holdings
		}
		if detail.Holdings < 0 {
			logs.Errorf("holdings corrected to 0, fill raced position snapshot. ticker_id: %d, was: %d",
				tickerID, detail.Holdings)
			detail.Holdings = 0
		}
	} else {
		detail.OpenPending -= traded
		detail.Holdings += traded
	}
	p.clampPending(tickerID, detail)

	contract := p.contracts.ByIndex(tickerID)
	if contract == nil {
		logs.Errorf("contract not found, cost price not updated. ticker_id: %d", tickerID)
		return
	}

	if offset.IsOpen() && detail.Holdings > 0 {
		size := float64(contract.Size)
		cost := size*float64(detail.Holdings-traded)*detail.CostPrice + size*float64(traded)*tradedPrice
		detail.CostPrice = cost / (float64(detail.Holdings) * size)
	}

	if detail.Holdings == 0 {
		detail.CostPrice = 0
		detail.FloatPnl = 0
	}
}

func (p *Portfolio) updatePurchaseOrRedeem(tickerID uint32, direction schema.Direction, traded int) {
	detail := &p.get(tickerID).Long

	if direction == schema.DirectionPurchase {
		detail.OpenPending -= traded
		detail.Holdings += traded
		detail.YdHoldings += traded
	} else {
		detail.ClosePending -= traded

		tdPos := detail.Holdings - detail.YdHoldings
		detail.Holdings -= traded
		detail.YdHoldings -= max(traded-tdPos, 0)

		if detail.Holdings == 0 {
			detail.FloatPnl = 0
			detail.CostPrice = 0
		}
	}
	p.clampPending(tickerID, detail)
}

// UpdateComponentStock adjusts basket-constituent holdings acquired or
// released by a creation/redemption, without touching pending volume:
// the pending amount is driven by the overall basket order.
func (p *Portfolio) UpdateComponentStock(tickerID uint32, traded int, acquire bool) {
	detail := &p.get(tickerID).Long

	if acquire {
		detail.Holdings += traded
		detail.YdHoldings += traded
	} else {
		tdPos := detail.Holdings - detail.YdHoldings
		detail.Holdings -= traded
		detail.YdHoldings -= max(traded-tdPos, 0)
	}
}

// UpdateFloatPnl marks open positions to market against the last price.
func (p *Portfolio) UpdateFloatPnl(tickerID uint32, lastPrice float64) {
	pos, ok := p.positions[tickerID]
	if !ok {
		return
	}
	if pos.Long.Holdings <= 0 && pos.Short.Holdings <= 0 {
		return
	}

	contract := p.contracts.ByIndex(tickerID)
	if contract == nil || contract.Size <= 0 {
		return
	}
	size := float64(contract.Size)

	if pos.Long.Holdings > 0 {
		pos.Long.FloatPnl = float64(pos.Long.Holdings) * size * (lastPrice - pos.Long.CostPrice)
	}
	if pos.Short.Holdings > 0 {
		pos.Short.FloatPnl = float64(pos.Short.Holdings) * size * (pos.Short.CostPrice - lastPrice)
	}
}
