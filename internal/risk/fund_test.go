package risk

import (
	"math"
	"testing"

	"main/internal/schema"
)

func TestFundCheckRejectsBeyondTolerance(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Account.Cash = 1000
	rule := &FundRule{}

	// estimate = 10 * 100 * 1 * 1 = 1000, within cash*1.1
	ok := newTestOrder(ctx, 1, schema.DirectionBuy, schema.OffsetOpen, schema.OrderTypeLimit, 100, 10)
	if code := rule.CheckOrderRequest(ctx, ok); code != schema.NoError {
		t.Fatalf("expected pass, got %s", code)
	}

	// estimate = 1200 > 1100
	over := newTestOrder(ctx, 1, schema.DirectionBuy, schema.OffsetOpen, schema.OrderTypeLimit, 120, 10)
	if code := rule.CheckOrderRequest(ctx, over); code != schema.ErrFundNotEnough {
		t.Fatalf("expected FundNotEnough, got %s", code)
	}
}

func TestFundCheckSkipsClosesAndPrimary(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Account.Cash = 0
	rule := &FundRule{}

	cases := []struct {
		dir schema.Direction
		off schema.Offset
	}{
		{schema.DirectionSell, schema.OffsetClose},
		{schema.DirectionPurchase, schema.OffsetOpen},
		{schema.DirectionRedeem, schema.OffsetOpen},
	}
	for _, tc := range cases {
		order := newTestOrder(ctx, 1, tc.dir, tc.off, schema.OrderTypeLimit, 100, 10)
		if code := rule.CheckOrderRequest(ctx, order); code != schema.NoError {
			t.Fatalf("%s %s: expected pass, got %s", tc.dir, tc.off, code)
		}
	}
}

func TestFundFreezeAndSettle(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Account.Cash = 100_000
	rule := &FundRule{}

	// Futures open: size 300, margin rate 0.12.
	order := newTestOrder(ctx, 2, schema.DirectionBuy, schema.OffsetOpen, schema.OrderTypeLimit, 2, 100)
	estimate := 100.0 * 2 * 300 * 0.12

	rule.OnOrderSent(ctx, order)
	if got := ctx.Account.Frozen; math.Abs(got-estimate) > 1e-9 {
		t.Fatalf("frozen = %f, want %f", got, estimate)
	}
	if got := ctx.Account.Cash; math.Abs(got-(100_000-estimate)) > 1e-9 {
		t.Fatalf("cash = %f, want %f", got, 100_000-estimate)
	}

	// Fill settles at a better price: freeze released at the order
	// price, margin taken at the trade price, difference back to cash.
	trade := &schema.Trade{
		OrderID: order.Req.OrderID, TickerID: 2,
		TradeType: schema.TradeTypeSecondaryMarket, Volume: 2, Price: 99,
	}
	rule.OnOrderTraded(ctx, order, trade)

	margin := 99.0 * 2 * 300 * 0.12
	if got := ctx.Account.Frozen; math.Abs(got) > 1e-9 {
		t.Fatalf("frozen = %f, want 0", got)
	}
	if got := ctx.Account.Margin; math.Abs(got-margin) > 1e-9 {
		t.Fatalf("margin = %f, want %f", got, margin)
	}
	if got := ctx.Account.Cash; math.Abs(got-(100_000-margin)) > 1e-9 {
		t.Fatalf("cash = %f, want %f", got, 100_000-margin)
	}
}

func TestFundCloseReleasesMargin(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Account.Cash = 0
	ctx.Account.Margin = 10_000
	rule := &FundRule{}

	order := newTestOrder(ctx, 2, schema.DirectionSell, schema.OffsetClose, schema.OrderTypeLimit, 1, 100)
	trade := &schema.Trade{
		OrderID: order.Req.OrderID, TickerID: 2,
		TradeType: schema.TradeTypeSecondaryMarket, Volume: 1, Price: 100,
	}
	rule.OnOrderTraded(ctx, order, trade)

	released := 100.0 * 1 * 300 * 0.12
	if got := ctx.Account.Cash; math.Abs(got-released) > 1e-9 {
		t.Fatalf("cash = %f, want %f", got, released)
	}
	if got := ctx.Account.Margin; math.Abs(got-(10_000-released)) > 1e-9 {
		t.Fatalf("margin = %f, want %f", got, 10_000-released)
	}
}

func TestFundCancelReleasesProRata(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Account.Cash = 100_000
	rule := &FundRule{}

	order := newTestOrder(ctx, 1, schema.DirectionBuy, schema.OffsetOpen, schema.OrderTypeLimit, 100, 10)
	rule.OnOrderSent(ctx, order)
	rule.OnOrderCanceled(ctx, order, 40)

	remaining := 10.0 * 60
	if got := ctx.Account.Frozen; math.Abs(got-remaining) > 1e-9 {
		t.Fatalf("frozen = %f, want %f", got, remaining)
	}
	if got := ctx.Account.Cash; math.Abs(got-(100_000-remaining)) > 1e-9 {
		t.Fatalf("cash = %f, want %f", got, 100_000-remaining)
	}
}

func TestFundRejectionUnwind(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Account.Cash = 100_000
	rule := &FundRule{}

	// Pre-send failure: nothing was frozen, nothing to unwind.
	preSend := newTestOrder(ctx, 1, schema.DirectionBuy, schema.OffsetOpen, schema.OrderTypeLimit, 100, 10)
	rule.OnOrderRejected(ctx, preSend, schema.ErrRateLimited)
	if got := ctx.Account.Cash; got != 100_000 {
		t.Fatalf("cash = %f, want untouched", got)
	}

	// Exchange rejection after the send froze funds: full release.
	sent := newTestOrder(ctx, 1, schema.DirectionBuy, schema.OffsetOpen, schema.OrderTypeLimit, 100, 10)
	rule.OnOrderSent(ctx, sent)
	rule.OnOrderRejected(ctx, sent, schema.ErrRejected)
	if got := ctx.Account.Frozen; math.Abs(got) > 1e-9 {
		t.Fatalf("frozen = %f, want 0", got)
	}
	if got := ctx.Account.Cash; math.Abs(got-100_000) > 1e-9 {
		t.Fatalf("cash = %f, want 100000", got)
	}
}
