package schema

// PositionDetail is one side (long or short) of an instrument position.
type PositionDetail struct {
	// YdHoldings is the settled volume carried from the prior session,
	// subject to same-day-close restrictions. Always <= Holdings.
	YdHoldings int
	Holdings   int
	Frozen     int

	// OpenPending / ClosePending are volumes committed to working orders
	// that have not filled yet. Never negative; reorderings that would
	// push them below zero are clamped and logged.
	OpenPending  int
	ClosePending int

	// CostPrice is the volume-weighted average opening price.
	CostPrice float64
	FloatPnl  float64
}

// Position is the long/short pair for one instrument. A flat position is
// represented, not removed.
type Position struct {
	TickerID uint32
	Long     PositionDetail
	Short    PositionDetail
}

// Detail returns the side matching the given direction.
func (p *Position) Detail(d Direction) *PositionDetail {
	if d == DirectionSell {
		return &p.Short
	}
	return &p.Long
}
