// Package risk implements the admission-control chain: an ordered list of
// independent rules that decide whether an order may reach the market and
// keep their own derived bookkeeping as lifecycle events arrive.
package risk

import (
	"github.com/yanun0323/errors"

	"main/internal/bus"
	"main/internal/contracts"
	"main/internal/portfolio"
	"main/internal/schema"
)

// Config defines the risk chain composition and per-rule limits.
type Config struct {
	// Rules lists the rule names in evaluation order. Empty means the
	// default chain.
	Rules    []string       `yaml:"rules"`
	Throttle ThrottleConfig `yaml:"throttle"`
}

// ThrottleConfig defines the rate-limit windows. A zero period or zero
// limits disable the corresponding check.
type ThrottleConfig struct {
	PeriodMs    uint64 `yaml:"periodMs"`
	OrderLimit  int    `yaml:"orderLimit"`
	VolumeLimit int    `yaml:"volumeLimit"`
}

// DefaultRules is the standard chain composition, in evaluation order.
var DefaultRules = []string{"fund", "position", "self_trade", "throttle", "notifier"}

// Context carries borrowed references to the coordinator-owned state a
// rule may consult during one lock-held call. Rules must never retain any
// of these beyond the call that received them.
type Context struct {
	Account   *schema.Account
	Portfolio *portfolio.Portfolio
	Orders    map[uint64]*schema.Order
	Contracts *contracts.Table
	Publisher bus.ResponsePublisher
}

// Rule is one admission-control/accounting rule. CheckOrderRequest is the
// only short-circuiting capability; every other hook runs through the
// whole chain unconditionally because each rule tracks its own state.
type Rule interface {
	Init(ctx *Context, cfg Config) error
	CheckOrderRequest(ctx *Context, order *schema.Order) schema.ErrorCode
	OnOrderSent(ctx *Context, order *schema.Order)
	OnOrderAccepted(ctx *Context, order *schema.Order)
	OnOrderTraded(ctx *Context, order *schema.Order, trade *schema.Trade)
	OnOrderCanceled(ctx *Context, order *schema.Order, canceled int)
	OnOrderRejected(ctx *Context, order *schema.Order, code schema.ErrorCode)
	OnOrderCompleted(ctx *Context, order *schema.Order)
}

// NopRule is an embeddable base providing no-op implementations of every
// capability.
type NopRule struct{}

func (NopRule) Init(*Context, Config) error { return nil }
func (NopRule) CheckOrderRequest(*Context, *schema.Order) schema.ErrorCode {
	return schema.NoError
}
func (NopRule) OnOrderSent(*Context, *schema.Order)                      {}
func (NopRule) OnOrderAccepted(*Context, *schema.Order)                  {}
func (NopRule) OnOrderTraded(*Context, *schema.Order, *schema.Trade)     {}
func (NopRule) OnOrderCanceled(*Context, *schema.Order, int)             {}
func (NopRule) OnOrderRejected(*Context, *schema.Order, schema.ErrorCode) {}
func (NopRule) OnOrderCompleted(*Context, *schema.Order)                 {}

// NewRule builds a rule by its configured name.
func NewRule(name string) (Rule, error) {
	switch name {
	case "fund":
		return &FundRule{}, nil
	case "position":
		return &PositionRule{}, nil
	case "self_trade":
		return &SelfTradeRule{}, nil
	case "throttle":
		return NewThrottleRule(), nil
	case "notifier":
		return &NotifierRule{}, nil
	case "arbitrage":
		return &ArbitrageRule{}, nil
	default:
		return nil, errors.Errorf("unknown risk rule: %s", name)
	}
}

// Chain runs rules in registration order. Admission checks fail fast on
// the first non-success code; lifecycle hooks always reach every rule.
type Chain struct {
	rules []Rule
}

// NewChain builds a chain from rule names, in order. An empty list yields
// the default chain.
func NewChain(names []string) (*Chain, error) {
	if len(names) == 0 {
		names = DefaultRules
	}
	c := &Chain{rules: make([]Rule, 0, len(names))}
	for _, name := range names {
		rule, err := NewRule(name)
		if err != nil {
			return nil, err
		}
		c.rules = append(c.rules, rule)
	}
	return c, nil
}

// Append adds a rule behind the existing chain.
func (c *Chain) Append(rule Rule) {
	c.rules = append(c.rules, rule)
}

// Init initializes every rule.
func (c *Chain) Init(ctx *Context, cfg Config) error {
	for _, rule := range c.rules {
		if err := rule.Init(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}

// CheckOrderRequest runs every rule in order and short-circuits on the
// first non-success result.
func (c *Chain) CheckOrderRequest(ctx *Context, order *schema.Order) schema.ErrorCode {
	for _, rule := range c.rules {
		if code := rule.CheckOrderRequest(ctx, order); code != schema.NoError {
			return code
		}
	}
	return schema.NoError
}

func (c *Chain) OnOrderSent(ctx *Context, order *schema.Order) {
	for _, rule := range c.rules {
		rule.OnOrderSent(ctx, order)
	}
}

func (c *Chain) OnOrderAccepted(ctx *Context, order *schema.Order) {
	for _, rule := range c.rules {
		rule.OnOrderAccepted(ctx, order)
	}
}

func (c *Chain) OnOrderTraded(ctx *Context, order *schema.Order, trade *schema.Trade) {
	for _, rule := range c.rules {
		rule.OnOrderTraded(ctx, order, trade)
	}
}

func (c *Chain) OnOrderCanceled(ctx *Context, order *schema.Order, canceled int) {
	for _, rule := range c.rules {
		rule.OnOrderCanceled(ctx, order, canceled)
	}
}

func (c *Chain) OnOrderRejected(ctx *Context, order *schema.Order, code schema.ErrorCode) {
	for _, rule := range c.rules {
		rule.OnOrderRejected(ctx, order, code)
	}
}

func (c *Chain) OnOrderCompleted(ctx *Context, order *schema.Order) {
	for _, rule := range c.rules {
		rule.OnOrderCompleted(ctx, order)
	}
}
