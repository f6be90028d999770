// Package sim provides an in-process simulated broker gateway. It is the
// backend for paper trading and for exercising the core without exchange
// connectivity. Callbacks are delivered from a dedicated goroutine, never
// from inside SendOrder or CancelOrder.
package sim

import (
	"sync"
	"sync/atomic"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/gateway"
	"main/internal/schema"
)

var (
	ErrNotLoggedIn  = errors.New("sim gateway: not logged in")
	ErrDisconnected = errors.New("sim gateway: disconnected")
	ErrUnknownOrder = errors.New("sim gateway: unknown order")
)

// Config seeds the simulated broker state and its scripted behavior.
type Config struct {
	Account   schema.Account
	Contracts []schema.Contract
	Positions []schema.Position
	Trades    []schema.Trade

	// AutoAccept acknowledges every sent order. AutoFill additionally
	// fills it completely at the order price (or FillPrice when set).
	AutoAccept bool
	AutoFill   bool
	FillPrice  float64
	// RejectReason, when non-empty, rejects every sent order instead.
	RejectReason string

	// EventBuffer bounds the callback queue. Zero means a default.
	EventBuffer int
}

type resting struct {
	req    schema.OrderRequest
	traded int
}

// Gateway is a scripted broker simulation. Sent orders are held in an
// internal book until filled, canceled, or explicitly scripted by a
// test via Accept/Reject/Fill/Cancel.
type Gateway struct {
	cfg     Config
	handler gateway.OrderEventHandler

	mu   sync.Mutex
	book map[uint64]*resting

	events chan func(h gateway.OrderEventHandler)
	done   chan struct{}

	nextPrivdata atomic.Uint64
	connected    atomic.Bool
	loggedIn     atomic.Bool
}

func New(cfg Config) *Gateway {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 1024
	}
	g := &Gateway{
		cfg:  cfg,
		book: make(map[uint64]*resting),
	}
	g.connected.Store(true)
	return g
}

func (g *Gateway) Login(handler gateway.OrderEventHandler, cfg gateway.Config) error {
	if g.loggedIn.Swap(true) {
		return errors.New("sim gateway: already logged in")
	}
	g.handler = handler
	g.events = make(chan func(h gateway.OrderEventHandler), g.cfg.EventBuffer)
	g.done = make(chan struct{})
	go g.deliver()
	logs.Infof("sim gateway logged in. account: %s", cfg.AccountID)
	return nil
}

func (g *Gateway) Logout() {
	if !g.loggedIn.Swap(false) {
		return
	}
	close(g.events)
	<-g.done
}

func (g *Gateway) deliver() {
	defer close(g.done)
	for fn := range g.events {
		fn(g.handler)
	}
}

func (g *Gateway) emit(fn func(h gateway.OrderEventHandler)) {
	select {
	case g.events <- fn:
	default:
		logs.Error("sim gateway event queue full, dropping event")
	}
}

// Flush blocks until every previously emitted event has been delivered.
func (g *Gateway) Flush() {
	ch := make(chan struct{})
	g.emit(func(gateway.OrderEventHandler) { close(ch) })
	<-ch
}

// Disconnect makes subsequent sends and cancels fail until Reconnect.
func (g *Gateway) Disconnect() { g.connected.Store(false) }

// Reconnect restores connectivity.
func (g *Gateway) Reconnect() { g.connected.Store(true) }

func (g *Gateway) SendOrder(req *schema.OrderRequest) (uint64, error) {
	if !g.loggedIn.Load() {
		return 0, ErrNotLoggedIn
	}
	if !g.connected.Load() {
		return 0, ErrDisconnected
	}

	privdata := g.nextPrivdata.Add(1)

	g.mu.Lock()
	g.book[req.OrderID] = &resting{req: *req}
	g.mu.Unlock()

	switch {
	case g.cfg.RejectReason != "":
		g.Reject(req.OrderID, g.cfg.RejectReason)
	case g.cfg.AutoFill:
		g.Accept(req.OrderID)
		price := g.cfg.FillPrice
		if price == 0 {
			price = req.Price
		}
		g.Fill(req.OrderID, req.Volume, price)
	case g.cfg.AutoAccept:
		g.Accept(req.OrderID)
	}
	return privdata, nil
}

func (g *Gateway) CancelOrder(orderID, privdata uint64) error {
	if !g.loggedIn.Load() {
		return ErrNotLoggedIn
	}
	if !g.connected.Load() {
		return ErrDisconnected
	}
	return g.Cancel(orderID)
}

// Accept scripts an acceptance for a resting order.
func (g *Gateway) Accept(orderID uint64) {
	g.emit(func(h gateway.OrderEventHandler) {
		h.OnOrderAccepted(schema.OrderAcceptance{OrderID: orderID})
	})
}

// Reject scripts a rejection and drops the order from the book.
func (g *Gateway) Reject(orderID uint64, reason string) {
	g.mu.Lock()
	delete(g.book, orderID)
	g.mu.Unlock()
	g.emit(func(h gateway.OrderEventHandler) {
		h.OnOrderRejected(schema.OrderRejection{OrderID: orderID, Reason: reason})
	})
}

// Fill scripts a fill for a resting order. The order leaves the book
// once fully traded.
func (g *Gateway) Fill(orderID uint64, volume int, price float64) error {
	g.mu.Lock()
	r, ok := g.book[orderID]
	if !ok {
		g.mu.Unlock()
		return ErrUnknownOrder
	}
	if volume > r.req.Volume-r.traded {
		volume = r.req.Volume - r.traded
	}
	r.traded += volume
	if r.traded >= r.req.Volume {
		delete(g.book, orderID)
	}
	trade := schema.Trade{
		OrderID:   orderID,
		TickerID:  r.req.Contract.TickerID,
		Direction: r.req.Direction,
		Offset:    r.req.Offset,
		TradeType: tradeTypeFor(r.req.Direction),
		Volume:    volume,
		Price:     price,
		Amount:    price * float64(volume) * float64(r.req.Contract.Size),
	}
	g.mu.Unlock()

	g.emit(func(h gateway.OrderEventHandler) {
		h.OnOrderTraded(trade)
	})
	return nil
}

// Cancel scripts a cancellation of the untraded remainder.
func (g *Gateway) Cancel(orderID uint64) error {
	g.mu.Lock()
	r, ok := g.book[orderID]
	if !ok {
		g.mu.Unlock()
		g.emit(func(h gateway.OrderEventHandler) {
			h.OnOrderCancelRejected(schema.OrderCancelRejection{
				OrderID: orderID, Reason: "order not found",
			})
		})
		return ErrUnknownOrder
	}
	remaining := r.req.Volume - r.traded
	delete(g.book, orderID)
	g.mu.Unlock()

	g.emit(func(h gateway.OrderEventHandler) {
		h.OnOrderCanceled(schema.OrderCancellation{
			OrderID:        orderID,
			CanceledVolume: remaining,
		})
	})
	return nil
}

// PublishTick scripts a market data tick.
func (g *Gateway) PublishTick(tick schema.Tick) {
	g.emit(func(h gateway.OrderEventHandler) {
		h.OnTick(tick)
	})
}

func (g *Gateway) QueryContracts() ([]schema.Contract, error) {
	out := make([]schema.Contract, len(g.cfg.Contracts))
	copy(out, g.cfg.Contracts)
	return out, nil
}

func (g *Gateway) QueryAccount() (schema.Account, error) {
	return g.cfg.Account, nil
}

func (g *Gateway) QueryPositions() ([]schema.Position, error) {
	out := make([]schema.Position, len(g.cfg.Positions))
	copy(out, g.cfg.Positions)
	return out, nil
}

func (g *Gateway) QueryTrades() ([]schema.Trade, error) {
	out := make([]schema.Trade, len(g.cfg.Trades))
	copy(out, g.cfg.Trades)
	return out, nil
}

func tradeTypeFor(d schema.Direction) schema.TradeType {
	if d.IsSecondary() {
		return schema.TradeTypeSecondaryMarket
	}
	return schema.TradeTypePrimaryMarket
}
