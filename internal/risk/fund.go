package risk

import (
	"github.com/yanun0323/logs"

	"main/internal/schema"
)

// fundTolerance lets the pre-trade estimate exceed available cash by a
// small factor, absorbing price slippage between check and fill.
const fundTolerance = 1.1

// FundRule keeps the account funds consistent with the order flow: it
// freezes the estimated capital when an opening order is sent, converts
// it into margin as fills arrive, and releases it on cancels and
// exchange rejections.
type FundRule struct {
	NopRule
}

func (r *FundRule) CheckOrderRequest(ctx *Context, order *schema.Order) schema.ErrorCode {
	// Only secondary-market orders are managed here; basket creation and
	// redemption capital is accounted by the primary-market trade flow.
	req := &order.Req
	if !req.Direction.IsSecondary() || req.Offset.IsClose() {
		return schema.NoError
	}

	estimated := r.estimate(req, req.Volume)
	if ctx.Account.Cash*fundTolerance < estimated {
		logs.Errorf("fund not enough. estimated: %.3f, cash: %.3f, ticker: %s",
			estimated, ctx.Account.Cash, req.Contract.Ticker)
		return schema.ErrFundNotEnough
	}
	return schema.NoError
}

func (r *FundRule) OnOrderSent(ctx *Context, order *schema.Order) {
	if !order.Req.Offset.IsOpen() {
		return
	}
	changed := r.estimate(&order.Req, order.Req.Volume)
	ctx.Account.Cash -= changed
	ctx.Account.Frozen += changed
	logs.Debugf("funds frozen. %s, frozen: %.3f", ctx.Account, changed)
}

func (r *FundRule) OnOrderTraded(ctx *Context, order *schema.Order, trade *schema.Trade) {
	switch trade.TradeType {
	case schema.TradeTypeSecondaryMarket:
		r.onSecondaryTraded(ctx, order, trade)
	case schema.TradeTypeCashSubstitution:
		r.onCashSubstitution(ctx, order, trade)
	}
}

func (r *FundRule) onSecondaryTraded(ctx *Context, order *schema.Order, trade *schema.Trade) {
	req := &order.Req
	contract := req.Contract
	rate := contract.MarginRate(req.Direction)
	size := float64(contract.Size)

	if req.Offset.IsOpen() {
		// The freeze was estimated at the order price; the fill settles
		// at the trade price. Release the estimate, take the realized
		// notional as margin, and return the difference to cash.
		frozenReleased := size * float64(trade.Volume) * req.Price * rate
		margin := size * float64(trade.Volume) * trade.Price * rate
		ctx.Account.Frozen -= frozenReleased
		ctx.Account.Margin += margin
		ctx.Account.Cash += frozenReleased - margin
	} else if req.Offset.IsClose() {
		margin := size * float64(trade.Volume) * trade.Price * rate
		ctx.Account.Margin -= margin
		ctx.Account.Cash += margin
		if ctx.Account.Margin < 0 {
			ctx.Account.Margin = 0
		}
	}
	logs.Debugf("funds settled. %s", ctx.Account)
}

func (r *FundRule) onCashSubstitution(ctx *Context, order *schema.Order, trade *schema.Trade) {
	switch order.Req.Direction {
	case schema.DirectionPurchase:
		ctx.Account.Margin -= trade.Amount
		ctx.Account.Cash += trade.Amount
	case schema.DirectionRedeem:
		ctx.Account.Margin += trade.Amount
		ctx.Account.Cash -= trade.Amount
	}
}

func (r *FundRule) OnOrderCanceled(ctx *Context, order *schema.Order, canceled int) {
	if !order.Req.Offset.IsOpen() {
		return
	}
	changed := r.estimate(&order.Req, canceled)
	ctx.Account.Frozen -= changed
	ctx.Account.Cash += changed
	logs.Debugf("frozen funds released. %s, released: %.3f", ctx.Account, changed)
}

func (r *FundRule) OnOrderRejected(ctx *Context, order *schema.Order, code schema.ErrorCode) {
	// Pre-send failures never froze anything; only an exchange-side
	// rejection after OnOrderSent needs unwinding.
	if code.IsPreSend() {
		return
	}
	r.OnOrderCanceled(ctx, order, order.Req.Volume)
}

func (r *FundRule) estimate(req *schema.OrderRequest, volume int) float64 {
	return req.Price * float64(volume) * float64(req.Contract.Size) * req.Contract.MarginRate(req.Direction)
}
