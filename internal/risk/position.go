package risk

import (
	"github.com/yanun0323/logs"

	"main/internal/schema"
)

// PositionRule rejects closes that exceed the closable position and
// forwards lifecycle events into the portfolio's pending/traded
// transitions.
type PositionRule struct {
	NopRule
}

func (r *PositionRule) CheckOrderRequest(ctx *Context, order *schema.Order) schema.ErrorCode {
	req := &order.Req
	if !req.Direction.IsSecondary() {
		return schema.NoError
	}
	if !req.Offset.IsClose() {
		return schema.NoError
	}

	available := 0
	if pos := ctx.Portfolio.Position(req.Contract.TickerID); pos != nil {
		// A close consumes the position on the opposite side of the
		// order direction: selling closes longs, buying closes shorts.
		detail := pos.Detail(req.Direction.Opposite())
		available = detail.Holdings - detail.ClosePending
	}

	if available < req.Volume {
		logs.Errorf("not enough volume to close. available: %d, order volume: %d, ticker: %s",
			available, req.Volume, req.Contract.Ticker)
		return schema.ErrPositionNotEnough
	}
	return schema.NoError
}

func (r *PositionRule) OnOrderSent(ctx *Context, order *schema.Order) {
	req := &order.Req
	ctx.Portfolio.UpdatePending(req.Contract.TickerID, req.Direction, req.Offset, req.Volume)
}

func (r *PositionRule) OnOrderTraded(ctx *Context, order *schema.Order, trade *schema.Trade) {
	req := &order.Req
	switch trade.TradeType {
	case schema.TradeTypeSecondaryMarket, schema.TradeTypePrimaryMarket:
		ctx.Portfolio.UpdateTraded(req.Contract.TickerID, req.Direction, req.Offset, trade.Volume, trade.Price)
	case schema.TradeTypeAcquiredStock:
		ctx.Portfolio.UpdateComponentStock(trade.TickerID, trade.Volume, true)
	case schema.TradeTypeReleasedStock:
		ctx.Portfolio.UpdateComponentStock(trade.TickerID, trade.Volume, false)
	}
}

func (r *PositionRule) OnOrderCanceled(ctx *Context, order *schema.Order, canceled int) {
	req := &order.Req
	ctx.Portfolio.UpdatePending(req.Contract.TickerID, req.Direction, req.Offset, -canceled)
}

func (r *PositionRule) OnOrderRejected(ctx *Context, order *schema.Order, code schema.ErrorCode) {
	// Pending volume is committed by OnOrderSent, which never ran for a
	// pre-send failure.
	if code.IsPreSend() {
		return
	}
	req := &order.Req
	ctx.Portfolio.UpdatePending(req.Contract.TickerID, req.Direction, req.Offset, -req.Volume)
}
