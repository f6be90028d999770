package schema

// OrderRequest is the immutable part of an order as sent to the gateway.
type OrderRequest struct {
	OrderID   uint64
	Contract  *Contract
	Direction Direction
	Offset    Offset
	Type      OrderType
	Volume    int
	Price     float64
	Flags     OrderFlag
}

// Order is the unit of the lifecycle state machine. It is owned
// exclusively by the coordinator; risk rules receive a borrowed reference
// scoped to a single lock-held call and must not retain it.
type Order struct {
	Req OrderRequest

	// ClientOrderID is the strategy-supplied correlation token, echoed
	// back verbatim in every response.
	ClientOrderID uint32
	StrategyID    string

	// Accepted guards against duplicate or out-of-order acceptance
	// callbacks from the gateway.
	Accepted       bool
	TradedVolume   int
	CanceledVolume int
	Status         OrderStatus

	// Privdata is an opaque token owned by the gateway adapter, passed
	// back on cancel so the adapter can resolve the exchange-side target.
	Privdata uint64
}

// Completed reports whether nothing of the order remains working.
func (o *Order) Completed() bool {
	return o.TradedVolume+o.CanceledVolume == o.Req.Volume
}

// Trade is a fill (or primary-market accounting event) reported by the
// gateway.
type Trade struct {
	OrderID     uint64
	TickerID    uint32
	Direction   Direction
	Offset      Offset
	TradeType   TradeType
	Volume      int
	Price       float64
	Amount      float64 // cash amount, only for cash-substitution events
	TimestampUs uint64
}

// Tick is a market-data snapshot forwarded to strategies. The coordinator
// treats it as read-only and never takes the order lock for it.
type Tick struct {
	TickerID    uint32
	LastPrice   float64
	BidPrice    float64
	AskPrice    float64
	BidVolume   int
	AskVolume   int
	TimestampUs uint64
}

// OrderAcceptance notifies that the exchange accepted an order.
type OrderAcceptance struct {
	OrderID uint64
}

// OrderRejection notifies that the exchange rejected an order.
type OrderRejection struct {
	OrderID uint64
	Reason  string
}

// OrderCancellation reports the total remaining volume canceled by one
// cancel event. Precondition: at most one cancellation event per order;
// a second one would double-correct position state.
type OrderCancellation struct {
	OrderID        uint64
	CanceledVolume int
}

// OrderCancelRejection notifies that a cancel request was refused; the
// order stays live and remains cancelable.
type OrderCancelRejection struct {
	OrderID uint64
	Reason  string
}
