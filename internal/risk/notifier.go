package risk

import (
	"main/internal/codec"
	"main/internal/schema"
)

// NotifierRule publishes an OrderResponse frame back to the owning
// strategy on every order lifecycle event. Orders without a strategy id
// (manual or recovered orders) are not reported.
type NotifierRule struct {
	NopRule
}

func (r *NotifierRule) OnOrderAccepted(ctx *Context, order *schema.Order) {
	r.publish(ctx, order, schema.NoError, 0, 0)
}

func (r *NotifierRule) OnOrderTraded(ctx *Context, order *schema.Order, trade *schema.Trade) {
	r.publish(ctx, order, schema.NoError, trade.Volume, trade.Price)
}

func (r *NotifierRule) OnOrderCanceled(ctx *Context, order *schema.Order, canceled int) {
	r.publish(ctx, order, schema.NoError, 0, 0)
}

func (r *NotifierRule) OnOrderRejected(ctx *Context, order *schema.Order, code schema.ErrorCode) {
	r.publish(ctx, order, code, 0, 0)
}

func (r *NotifierRule) publish(ctx *Context, order *schema.Order, code schema.ErrorCode, thisTraded int, thisPrice float64) {
	if ctx.Publisher == nil || order.StrategyID == "" {
		return
	}

	req := &order.Req
	resp := schema.OrderResponse{
		ClientOrderID:   order.ClientOrderID,
		OrderID:         req.OrderID,
		TickerID:        req.Contract.TickerID,
		Direction:       req.Direction,
		Offset:          req.Offset,
		Price:           req.Price,
		OriginalVolume:  req.Volume,
		TradedVolume:    order.TradedVolume,
		Completed:       order.Completed() || code != schema.NoError,
		ErrorCode:       code,
		ThisTraded:      thisTraded,
		ThisTradedPrice: thisPrice,
	}

	frame := codec.EncodeResponse(nil, resp)
	ctx.Publisher.Publish(order.StrategyID, frame)
}
