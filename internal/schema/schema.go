package schema

// Direction is the trading direction of an order. Purchase and redeem are
// the primary-market directions used for basket creation/redemption.
type Direction uint8

const (
	DirectionUnknown Direction = iota
	DirectionBuy
	DirectionSell
	DirectionPurchase
	DirectionRedeem
)

// Opposite returns the counterparty direction for buy/sell.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionBuy:
		return DirectionSell
	case DirectionSell:
		return DirectionBuy
	default:
		return d
	}
}

// IsSecondary reports whether the direction is an ordinary buy or sell.
func (d Direction) IsSecondary() bool {
	return d == DirectionBuy || d == DirectionSell
}

func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "buy"
	case DirectionSell:
		return "sell"
	case DirectionPurchase:
		return "purchase"
	case DirectionRedeem:
		return "redeem"
	default:
		return "unknown"
	}
}

// Offset describes whether an order opens a new position or closes an
// existing one. Some exchanges distinguish closing today's position from
// closing yesterday's.
type Offset uint8

const (
	OffsetUnknown Offset = iota
	OffsetOpen
	OffsetClose
	OffsetCloseToday
	OffsetCloseYesterday
	OffsetNone
)

// IsOpen reports whether the offset opens position.
func (o Offset) IsOpen() bool {
	return o == OffsetOpen
}

// IsClose reports whether the offset closes position, regardless of
// today/yesterday.
func (o Offset) IsClose() bool {
	return o == OffsetClose || o == OffsetCloseToday || o == OffsetCloseYesterday
}

func (o Offset) String() string {
	switch o {
	case OffsetOpen:
		return "open"
	case OffsetClose:
		return "close"
	case OffsetCloseToday:
		return "close_today"
	case OffsetCloseYesterday:
		return "close_yesterday"
	case OffsetNone:
		return "none"
	default:
		return "unknown"
	}
}

// OrderType is the price type of an order.
type OrderType uint8

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeMarket
	OrderTypeLimit
	OrderTypeBest
	OrderTypeFAK
	OrderTypeFOK
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "market"
	case OrderTypeLimit:
		return "limit"
	case OrderTypeBest:
		return "best"
	case OrderTypeFAK:
		return "fak"
	case OrderTypeFOK:
		return "fok"
	default:
		return "unknown"
	}
}

// OrderStatus tracks the lifecycle of an order inside the coordinator.
type OrderStatus uint8

const (
	OrderStatusSubmitting OrderStatus = iota
	OrderStatusRejected
	OrderStatusAccepted
	OrderStatusPartTraded
	OrderStatusAllTraded
	OrderStatusCanceled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusSubmitting:
		return "submitting"
	case OrderStatusRejected:
		return "rejected"
	case OrderStatusAccepted:
		return "accepted"
	case OrderStatusPartTraded:
		return "part_traded"
	case OrderStatusAllTraded:
		return "all_traded"
	case OrderStatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// TradeType classifies a fill event. Secondary-market is an ordinary
// buy/sell execution; the rest are primary-market basket sub-types.
type TradeType uint8

const (
	TradeTypeSecondaryMarket TradeType = iota
	TradeTypePrimaryMarket
	TradeTypeCashSubstitution
	TradeTypeAcquiredStock
	TradeTypeReleasedStock
)

func (t TradeType) String() string {
	switch t {
	case TradeTypeSecondaryMarket:
		return "secondary_market"
	case TradeTypePrimaryMarket:
		return "primary_market"
	case TradeTypeCashSubstitution:
		return "cash_substitution"
	case TradeTypeAcquiredStock:
		return "acquired_stock"
	case TradeTypeReleasedStock:
		return "released_stock"
	default:
		return "unknown"
	}
}

// ProductType is the instrument class of a contract.
type ProductType uint8

const (
	ProductTypeFutures ProductType = iota
	ProductTypeOptions
	ProductTypeStock
	ProductTypeFund
	ProductTypeUnknown
)

// OrderFlag carries venue-specific order flags such as hedging.
type OrderFlag uint8

const (
	OrderFlagNone  OrderFlag = 0x0
	OrderFlagHedge OrderFlag = 0x1
)
