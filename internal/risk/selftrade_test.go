package risk

import (
	"testing"

	"main/internal/schema"
)

func TestSelfTradePriceMatrix(t *testing.T) {
	ctx := newTestContext(t)
	rule := &SelfTradeRule{}

	resting := newTestOrder(ctx, 1, schema.DirectionBuy, schema.OffsetOpen, schema.OrderTypeLimit, 10, 100)
	ctx.Orders[resting.Req.OrderID] = resting

	testCases := []struct {
		desc     string
		dir      schema.Direction
		typ      schema.OrderType
		price    float64
		expected schema.ErrorCode
	}{
		{"sell below resting buy crosses", schema.DirectionSell, schema.OrderTypeLimit, 99, schema.ErrSelfTrade},
		{"sell at resting buy crosses", schema.DirectionSell, schema.OrderTypeLimit, 100, schema.ErrSelfTrade},
		{"sell above resting buy passes", schema.DirectionSell, schema.OrderTypeLimit, 101, schema.NoError},
		{"sell market always crosses", schema.DirectionSell, schema.OrderTypeMarket, 0, schema.ErrSelfTrade},
		{"same direction passes", schema.DirectionBuy, schema.OrderTypeLimit, 100, schema.NoError},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			order := newTestOrder(ctx, 1, tc.dir, schema.OffsetOpen, tc.typ, 10, tc.price)
			if code := rule.CheckOrderRequest(ctx, order); code != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, code)
			}
		})
	}
}

func TestSelfTradeRestingMarketOrder(t *testing.T) {
	ctx := newTestContext(t)
	rule := &SelfTradeRule{}

	resting := newTestOrder(ctx, 1, schema.DirectionBuy, schema.OffsetOpen, schema.OrderTypeMarket, 10, 0)
	ctx.Orders[resting.Req.OrderID] = resting

	// Any opposite order can match a resting market order.
	sell := newTestOrder(ctx, 1, schema.DirectionSell, schema.OffsetOpen, schema.OrderTypeLimit, 10, 1e9)
	if code := rule.CheckOrderRequest(ctx, sell); code != schema.ErrSelfTrade {
		t.Fatalf("expected SelfTrade, got %s", code)
	}
}

func TestSelfTradeIncomingMarketBuyAgainstRestingSell(t *testing.T) {
	ctx := newTestContext(t)
	rule := &SelfTradeRule{}

	resting := newTestOrder(ctx, 1, schema.DirectionSell, schema.OffsetOpen, schema.OrderTypeLimit, 10, 100)
	ctx.Orders[resting.Req.OrderID] = resting

	// A market buy carries no protective price and would lift the
	// resting sell at the venue, so it must be rejected.
	buy := newTestOrder(ctx, 1, schema.DirectionBuy, schema.OffsetOpen, schema.OrderTypeMarket, 10, 0)
	if code := rule.CheckOrderRequest(ctx, buy); code != schema.ErrSelfTrade {
		t.Fatalf("expected SelfTrade, got %s", code)
	}
}

func TestSelfTradeIgnoresOtherTickers(t *testing.T) {
	ctx := newTestContext(t)
	rule := &SelfTradeRule{}

	resting := newTestOrder(ctx, 1, schema.DirectionBuy, schema.OffsetOpen, schema.OrderTypeLimit, 10, 100)
	ctx.Orders[resting.Req.OrderID] = resting

	order := newTestOrder(ctx, 2, schema.DirectionSell, schema.OffsetOpen, schema.OrderTypeLimit, 10, 99)
	if code := rule.CheckOrderRequest(ctx, order); code != schema.NoError {
		t.Fatalf("expected pass on other ticker, got %s", code)
	}
}
