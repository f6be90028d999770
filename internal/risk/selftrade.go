package risk

import (
	"github.com/yanun0323/logs"

	"main/internal/schema"
)

const priceEpsilon = 1e-5

// SelfTradeRule rejects an order that could cross with one of the
// account's own resting orders on the same ticker.
type SelfTradeRule struct {
	NopRule
}

func (r *SelfTradeRule) CheckOrderRequest(ctx *Context, order *schema.Order) schema.ErrorCode {
	req := &order.Req
	if !req.Direction.IsSecondary() {
		return schema.NoError
	}

	for _, resting := range ctx.Orders {
		rr := &resting.Req
		if rr.Contract.TickerID != req.Contract.TickerID {
			continue
		}
		if rr.Direction == req.Direction || !rr.Direction.IsSecondary() {
			continue
		}
		if crossable(req, rr) {
			logs.Errorf("self trade detected. ticker: %s, %s at %f against resting %s at %f",
				req.Contract.Ticker, req.Direction, req.Price, rr.Direction, rr.Price)
			return schema.ErrSelfTrade
		}
	}
	return schema.NoError
}

// crossable reports whether the incoming order could match the resting
// one. Market orders, and resting orders without a meaningful price,
// cross at any level.
func crossable(incoming, resting *schema.OrderRequest) bool {
	if incoming.Type == schema.OrderTypeMarket || incoming.Price < priceEpsilon {
		return true
	}
	if resting.Type == schema.OrderTypeMarket || resting.Price < priceEpsilon {
		return true
	}
	if incoming.Direction == schema.DirectionBuy {
		return incoming.Price > resting.Price-priceEpsilon
	}
	return incoming.Price < resting.Price+priceEpsilon
}
