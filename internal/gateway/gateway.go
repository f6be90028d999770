// Package gateway defines the contract between the trading core and a
// broker connection. Implementations deliver every order callback from
// their own goroutines; the core serializes them behind its own lock.
package gateway

import (
	"main/internal/schema"
)

// Config carries the connection settings a gateway needs at login.
// Unused fields are ignored by implementations that do not need them.
type Config struct {
	Name      string `yaml:"name"`
	AccountID string `yaml:"accountId"`
	Address   string `yaml:"address"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
}

// OrderEventHandler receives gateway callbacks. Implementations of
// Gateway must never invoke a handler from inside SendOrder or
// CancelOrder; doing so would re-enter the caller's lock.
type OrderEventHandler interface {
	OnOrderAccepted(acceptance schema.OrderAcceptance)
	OnOrderRejected(rejection schema.OrderRejection)
	OnOrderTraded(trade schema.Trade)
	OnOrderCanceled(cancellation schema.OrderCancellation)
	OnOrderCancelRejected(rejection schema.OrderCancelRejection)
	OnTick(tick schema.Tick)
}

// Gateway is a broker connection. Login must succeed before any other
// call; Logout releases the session and stops callback delivery.
type Gateway interface {
	Login(handler OrderEventHandler, cfg Config) error
	Logout()

	// SendOrder dispatches an order and returns an opaque token the
	// caller must present when canceling it.
	SendOrder(req *schema.OrderRequest) (privdata uint64, err error)
	CancelOrder(orderID, privdata uint64) error

	QueryContracts() ([]schema.Contract, error)
	QueryAccount() (schema.Account, error)
	QueryPositions() ([]schema.Position, error)
	QueryTrades() ([]schema.Trade, error)
}
