package schema

// ErrorCode is the admission/rejection taxonomy reported back to
// strategies. Ordering matters: codes at or below ErrSendFailed mean the
// order never reached the exchange, so sent-state bookkeeping (frozen
// funds, pending volume, throttle windows) was never committed or must be
// rolled back locally.
type ErrorCode int32

const (
	NoError ErrorCode = iota
	ErrSelfTrade
	ErrPositionNotEnough
	ErrFundNotEnough
	ErrRateLimited
	ErrSendFailed
	ErrRejected
)

// IsPreSend reports whether the code describes a failure that happened
// before the order reached the exchange.
func (e ErrorCode) IsPreSend() bool {
	return e <= ErrSendFailed
}

func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "NoError"
	case ErrSelfTrade:
		return "SelfTrade"
	case ErrPositionNotEnough:
		return "PositionNotEnough"
	case ErrFundNotEnough:
		return "FundNotEnough"
	case ErrRateLimited:
		return "RateLimited"
	case ErrSendFailed:
		return "SendFailed"
	case ErrRejected:
		return "Rejected"
	default:
		return "UnknownError"
	}
}
