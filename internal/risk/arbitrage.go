package risk

// ArbitrageRule is a placeholder slot for ETF arbitrage checks.
//
// TODO(arb): reject redeem orders whose creation basket is still
// settling once the gateway exposes basket settlement state.
type ArbitrageRule struct {
	NopRule
}
