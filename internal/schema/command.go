package schema

// TradingCmdMagic validates that an incoming frame is a trader command.
const TradingCmdMagic uint32 = 0x1709394

// StrategyIDSize is the fixed width of the strategy id field on the wire.
const StrategyIDSize = 16

// CmdType is the strategy command discriminator.
type CmdType uint32

const (
	CmdUnknown CmdType = iota
	CmdNewOrder
	CmdCancelOrder
	CmdCancelTicker
	CmdCancelAll
	CmdNotify
)

func (t CmdType) String() string {
	switch t {
	case CmdNewOrder:
		return "new_order"
	case CmdCancelOrder:
		return "cancel_order"
	case CmdCancelTicker:
		return "cancel_ticker"
	case CmdCancelAll:
		return "cancel_all"
	case CmdNotify:
		return "notify"
	default:
		return "unknown"
	}
}

// OrderReq is the new-order payload of a TraderCommand.
type OrderReq struct {
	ClientOrderID uint32
	TickerID      uint32
	Direction     Direction
	Offset        Offset
	Type          OrderType
	Flags         OrderFlag
	Volume        int32
	Price         float64
}

// CancelReq is the cancel-order payload of a TraderCommand.
type CancelReq struct {
	OrderID uint64
}

// CancelTickerReq is the cancel-ticker payload of a TraderCommand.
type CancelTickerReq struct {
	TickerID uint32
}

// Notification is the notify payload of a TraderCommand.
type Notification struct {
	Signal uint64
}

// TraderCommand is one strategy command delivered over the bus. Exactly
// one of the payload fields is meaningful, selected by Type.
type TraderCommand struct {
	Magic       uint32
	Type        CmdType
	TimestampUs uint64

	// WithoutCheck bypasses the admission-control chain; an operator
	// escape hatch for emergencies. Lifecycle hooks still run.
	WithoutCheck bool
	StrategyID   string

	OrderReq        OrderReq
	CancelReq       CancelReq
	CancelTickerReq CancelTickerReq
	Notification    Notification
}

// OrderResponse is the asynchronous outcome report correlated by
// ClientOrderID. It is the only channel through which a strategy observes
// success or failure.
type OrderResponse struct {
	ClientOrderID  uint32
	OrderID        uint64
	TickerID       uint32
	Direction      Direction
	Offset         Offset
	Price          float64
	OriginalVolume int
	TradedVolume   int

	Completed bool
	ErrorCode ErrorCode

	ThisTraded      int
	ThisTradedPrice float64
}
