package risk

import (
	"testing"

	"main/internal/schema"
)

func TestPositionCloseAvailability(t *testing.T) {
	ctx := newTestContext(t)
	rule := &PositionRule{}

	ctx.Portfolio.InitPosition(schema.Position{
		TickerID: 1,
		Long:     schema.PositionDetail{Holdings: 10, YdHoldings: 10},
	})

	ok := newTestOrder(ctx, 1, schema.DirectionSell, schema.OffsetClose, schema.OrderTypeLimit, 10, 10)
	if code := rule.CheckOrderRequest(ctx, ok); code != schema.NoError {
		t.Fatalf("expected pass, got %s", code)
	}

	over := newTestOrder(ctx, 1, schema.DirectionSell, schema.OffsetClose, schema.OrderTypeLimit, 11, 10)
	if code := rule.CheckOrderRequest(ctx, over); code != schema.ErrPositionNotEnough {
		t.Fatalf("expected PositionNotEnough, got %s", code)
	}
}

func TestPositionClosePendingReducesAvailability(t *testing.T) {
	ctx := newTestContext(t)
	rule := &PositionRule{}

	ctx.Portfolio.InitPosition(schema.Position{
		TickerID: 1,
		Long:     schema.PositionDetail{Holdings: 10, YdHoldings: 10},
	})

	working := newTestOrder(ctx, 1, schema.DirectionSell, schema.OffsetClose, schema.OrderTypeLimit, 6, 10)
	rule.OnOrderSent(ctx, working)

	next := newTestOrder(ctx, 1, schema.DirectionSell, schema.OffsetClose, schema.OrderTypeLimit, 5, 10)
	if code := rule.CheckOrderRequest(ctx, next); code != schema.ErrPositionNotEnough {
		t.Fatalf("expected PositionNotEnough with 4 available, got %s", code)
	}

	// Canceling the working order restores availability.
	rule.OnOrderCanceled(ctx, working, 6)
	if code := rule.CheckOrderRequest(ctx, next); code != schema.NoError {
		t.Fatalf("expected pass after cancel, got %s", code)
	}
}

func TestPositionCloseWithoutPosition(t *testing.T) {
	ctx := newTestContext(t)
	rule := &PositionRule{}

	order := newTestOrder(ctx, 1, schema.DirectionSell, schema.OffsetClose, schema.OrderTypeLimit, 1, 10)
	if code := rule.CheckOrderRequest(ctx, order); code != schema.ErrPositionNotEnough {
		t.Fatalf("expected PositionNotEnough, got %s", code)
	}
}

func TestPositionPostSendRejectionUnwindsPending(t *testing.T) {
	ctx := newTestContext(t)
	rule := &PositionRule{}

	order := newTestOrder(ctx, 1, schema.DirectionBuy, schema.OffsetOpen, schema.OrderTypeLimit, 10, 10)
	rule.OnOrderSent(ctx, order)
	if got := ctx.Portfolio.Position(1).Long.OpenPending; got != 10 {
		t.Fatalf("open pending = %d, want 10", got)
	}

	rule.OnOrderRejected(ctx, order, schema.ErrRejected)
	if got := ctx.Portfolio.Position(1).Long.OpenPending; got != 0 {
		t.Fatalf("open pending = %d, want 0", got)
	}
}

func TestPositionTradeDispatchByType(t *testing.T) {
	ctx := newTestContext(t)
	rule := &PositionRule{}

	order := newTestOrder(ctx, 1, schema.DirectionBuy, schema.OffsetOpen, schema.OrderTypeLimit, 10, 10)
	rule.OnOrderSent(ctx, order)
	rule.OnOrderTraded(ctx, order, &schema.Trade{
		OrderID: order.Req.OrderID, TickerID: 1,
		TradeType: schema.TradeTypeSecondaryMarket, Volume: 10, Price: 10,
	})
	if got := ctx.Portfolio.Position(1).Long.Holdings; got != 10 {
		t.Fatalf("holdings = %d, want 10", got)
	}

	// Basket constituents arrive as component-stock events on their own
	// ticker ids.
	rule.OnOrderTraded(ctx, order, &schema.Trade{
		OrderID: order.Req.OrderID, TickerID: 2,
		TradeType: schema.TradeTypeAcquiredStock, Volume: 5,
	})
	if got := ctx.Portfolio.Position(2).Long.Holdings; got != 5 {
		t.Fatalf("component holdings = %d, want 5", got)
	}
}
