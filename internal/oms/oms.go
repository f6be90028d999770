// Package oms implements the order-management coordinator: the single
// owner of the order table, account snapshot, and portfolio, serializing
// strategy commands and gateway callbacks behind one lock.
package oms

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/codec"
	"main/internal/contracts"
	"main/internal/gateway"
	"main/internal/obs"
	"main/internal/portfolio"
	"main/internal/risk"
	"main/internal/schema"
)

const defaultRefreshInterval = 15 * time.Second

// Options tunes the coordinator. Zero values fall back to defaults.
type Options struct {
	Gateway         gateway.Config
	RefreshInterval time.Duration

	// TickHandler, when set, receives every market tick. It runs on the
	// gateway's delivery goroutine without the coordinator lock and must
	// not block.
	TickHandler func(schema.Tick)
}

// OMS coordinates admission control, gateway dispatch, and accounting.
// All state behind mu is owned here; risk rules see it only through a
// borrowed risk.Context for the duration of one call.
type OMS struct {
	gw        gateway.Gateway
	contracts *contracts.Table
	chain     *risk.Chain
	publisher bus.ResponsePublisher
	metrics   *obs.Metrics
	opt       Options

	mu        sync.Mutex
	account   schema.Account
	portfolio *portfolio.Portfolio
	orders    map[uint64]*schema.Order

	nextOrderID atomic.Uint64

	// lastPrices holds float64 bits per ticker id, written by OnTick
	// without the lock and read by the mark-to-market timer.
	lastPrices []atomic.Uint64
}

func New(gw gateway.Gateway, table *contracts.Table, riskCfg risk.Config, publisher bus.ResponsePublisher, metrics *obs.Metrics, opt Options) (*OMS, error) {
	chain, err := risk.NewChain(riskCfg.Rules)
	if err != nil {
		return nil, errors.Wrap(err, "build risk chain")
	}
	if opt.RefreshInterval <= 0 {
		opt.RefreshInterval = defaultRefreshInterval
	}

	o := &OMS{
		gw:         gw,
		contracts:  table,
		chain:      chain,
		publisher:  publisher,
		metrics:    metrics,
		opt:        opt,
		portfolio:  portfolio.New(table),
		orders:     make(map[uint64]*schema.Order),
		lastPrices: make([]atomic.Uint64, table.Count()+1),
	}
	o.nextOrderID.Store(uint64(time.Now().UTC().UnixNano()))

	if err := o.start(riskCfg); err != nil {
		return nil, err
	}
	return o, nil
}

// start logs in, recovers broker-side state, and initializes the chain.
func (o *OMS) start(riskCfg risk.Config) error {
	if err := o.gw.Login(o, o.opt.Gateway); err != nil {
		return errors.Wrap(err, "gateway login")
	}

	account, err := o.gw.QueryAccount()
	if err != nil {
		return errors.Wrap(err, "query account")
	}
	positions, err := o.gw.QueryPositions()
	if err != nil {
		return errors.Wrap(err, "query positions")
	}
	trades, err := o.gw.QueryTrades()
	if err != nil {
		return errors.Wrap(err, "query trades")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.account = account
	for _, pos := range positions {
		o.portfolio.InitPosition(pos)
	}
	logs.Infof("gateway state recovered. account: %s, positions: %d, trades today: %d",
		account.String(), len(positions), len(trades))

	if err := o.chain.Init(o.riskCtx(), riskCfg); err != nil {
		return errors.Wrap(err, "init risk chain")
	}
	return nil
}

// Run drains strategy command frames from the queue until ctx is done,
// refreshing the account snapshot on a timer in between.
func (o *OMS) Run(ctx context.Context, queue *bus.Queue) {
	go o.refreshLoop(ctx)
	queue.Run(ctx, func(f bus.Frame) {
		cmd, ok := codec.DecodeCommand(f.Data)
		if !ok {
			logs.Warnf("dropping short command frame. size: %d", len(f.Data))
			return
		}
		o.Execute(&cmd)
	})
}

// Execute dispatches one strategy command.
func (o *OMS) Execute(cmd *schema.TraderCommand) {
	if cmd.Magic != schema.TradingCmdMagic {
		logs.Warnf("dropping command with bad magic: %#x", cmd.Magic)
		return
	}
	o.metrics.IncCommand(cmd.Type)

	switch cmd.Type {
	case schema.CmdNewOrder:
		o.SendOrder(cmd)
	case schema.CmdCancelOrder:
		o.CancelOrder(cmd.CancelReq.OrderID)
	case schema.CmdCancelTicker:
		o.CancelForTicker(cmd.CancelTickerReq.TickerID)
	case schema.CmdCancelAll:
		o.CancelAll()
	case schema.CmdNotify:
		logs.Debugf("strategy notification. signal: %d, strategy: %s",
			cmd.Notification.Signal, cmd.StrategyID)
	default:
		logs.Warnf("dropping command with unknown type: %d", uint32(cmd.Type))
	}
}

// SendOrder runs admission control and dispatches a new order. The
// returned id is zero when the order never entered the table; the
// strategy learns the reason through its response channel.
func (o *OMS) SendOrder(cmd *schema.TraderCommand) uint64 {
	req := &cmd.OrderReq
	contract := o.contracts.ByIndex(req.TickerID)
	if contract == nil {
		logs.Errorf("dropping order for unknown ticker id: %d", req.TickerID)
		return 0
	}

	started := time.Now()

	o.mu.Lock()
	defer o.mu.Unlock()

	order := &schema.Order{
		Req: schema.OrderRequest{
			OrderID:   o.nextOrderID.Add(1),
			Contract:  contract,
			Direction: req.Direction,
			Offset:    req.Offset,
			Type:      req.Type,
			Volume:    int(req.Volume),
			Price:     req.Price,
			Flags:     req.Flags,
		},
		ClientOrderID: req.ClientOrderID,
		StrategyID:    cmd.StrategyID,
		Status:        schema.OrderStatusSubmitting,
	}

	ctx := o.riskCtx()
	if !cmd.WithoutCheck {
		if code := o.chain.CheckOrderRequest(ctx, order); code != schema.NoError {
			logs.Warnf("order rejected by risk check. ticker: %s, reason: %s",
				contract.Ticker, code)
			o.metrics.IncReject(code)
			o.chain.OnOrderRejected(ctx, order, code)
			return 0
		}
	}

	privdata, err := o.gw.SendOrder(&order.Req)
	if err != nil {
		logs.Errorf("gateway send failed. ticker: %s, err: %+v", contract.Ticker, err)
		o.metrics.IncReject(schema.ErrSendFailed)
		o.chain.OnOrderRejected(ctx, order, schema.ErrSendFailed)
		return 0
	}
	order.Privdata = privdata

	o.orders[order.Req.OrderID] = order
	o.chain.OnOrderSent(ctx, order)
	o.metrics.ObserveSend(time.Since(started))

	logs.Debugf("order sent. id: %d, ticker: %s, %s %s %d@%f",
		order.Req.OrderID, contract.Ticker, order.Req.Direction, order.Req.Offset,
		order.Req.Volume, order.Req.Price)
	return order.Req.OrderID
}

// CancelOrder asks the gateway to cancel one live order.
func (o *OMS) CancelOrder(orderID uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelLocked(orderID)
}

// CancelForTicker cancels every live order on one instrument.
func (o *OMS) CancelForTicker(tickerID uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, order := range o.orders {
		if order.Req.Contract.TickerID == tickerID {
			o.cancelLocked(id)
		}
	}
}

// CancelAll cancels every live order.
func (o *OMS) CancelAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id := range o.orders {
		o.cancelLocked(id)
	}
}

func (o *OMS) cancelLocked(orderID uint64) {
	order, ok := o.orders[orderID]
	if !ok {
		logs.Warnf("cancel for unknown order id: %d", orderID)
		return
	}
	if err := o.gw.CancelOrder(orderID, order.Privdata); err != nil {
		logs.Errorf("gateway cancel failed. order id: %d, err: %+v", orderID, err)
	}
}

// OnOrderAccepted marks an order accepted exactly once; later duplicates
// from the gateway are ignored.
func (o *OMS) OnOrderAccepted(acceptance schema.OrderAcceptance) {
	o.metrics.IncCallback()
	started := time.Now()

	o.mu.Lock()
	defer o.mu.Unlock()

	order, ok := o.orders[acceptance.OrderID]
	if !ok {
		logs.Warnf("acceptance for unknown order id: %d", acceptance.OrderID)
		return
	}
	o.acceptLocked(order)
	o.metrics.ObserveCallback(time.Since(started))
}

func (o *OMS) acceptLocked(order *schema.Order) {
	if order.Accepted {
		return
	}
	order.Accepted = true
	order.Status = schema.OrderStatusAccepted
	o.chain.OnOrderAccepted(o.riskCtx(), order)
}

// OnOrderRejected removes a rejected order and unwinds its bookkeeping.
func (o *OMS) OnOrderRejected(rejection schema.OrderRejection) {
	o.metrics.IncCallback()
	o.metrics.IncReject(schema.ErrRejected)

	o.mu.Lock()
	defer o.mu.Unlock()

	order, ok := o.orders[rejection.OrderID]
	if !ok {
		logs.Warnf("rejection for unknown order id: %d", rejection.OrderID)
		return
	}
	logs.Warnf("order rejected by exchange. id: %d, reason: %s",
		rejection.OrderID, rejection.Reason)

	order.Status = schema.OrderStatusRejected
	delete(o.orders, rejection.OrderID)
	o.chain.OnOrderRejected(o.riskCtx(), order, schema.ErrRejected)
}

// OnOrderTraded applies one fill. Secondary-market fills accumulate; of
// the primary-market trade types only the creation/redemption fill itself
// is terminal, the basket legs are accounting events.
func (o *OMS) OnOrderTraded(trade schema.Trade) {
	o.metrics.IncCallback()
	started := time.Now()

	o.mu.Lock()
	defer o.mu.Unlock()

	order, ok := o.orders[trade.OrderID]
	if !ok {
		logs.Warnf("trade for unknown order id: %d", trade.OrderID)
		return
	}

	ctx := o.riskCtx()
	switch trade.TradeType {
	case schema.TradeTypeSecondaryMarket:
		// Some venues report the first fill before the acceptance.
		o.acceptLocked(order)
		order.TradedVolume += trade.Volume
		order.Status = schema.OrderStatusPartTraded
		o.chain.OnOrderTraded(ctx, order, &trade)

	case schema.TradeTypePrimaryMarket:
		// The creation/redemption fill itself is terminal; the basket
		// legs and cash substitution are accounting events on top.
		o.acceptLocked(order)
		order.TradedVolume = trade.Volume
		o.chain.OnOrderTraded(ctx, order, &trade)
		order.Status = schema.OrderStatusAllTraded
		delete(o.orders, order.Req.OrderID)
		o.chain.OnOrderCompleted(ctx, order)
		o.metrics.ObserveCallback(time.Since(started))
		return

	default:
		o.chain.OnOrderTraded(ctx, order, &trade)
		o.metrics.ObserveCallback(time.Since(started))
		return
	}

	if order.Completed() {
		order.Status = schema.OrderStatusAllTraded
		delete(o.orders, order.Req.OrderID)
		o.chain.OnOrderCompleted(ctx, order)
	}
	o.metrics.ObserveCallback(time.Since(started))
}

// OnOrderCanceled applies one cancellation reporting the whole untraded
// remainder of the order.
func (o *OMS) OnOrderCanceled(cancellation schema.OrderCancellation) {
	o.metrics.IncCallback()

	o.mu.Lock()
	defer o.mu.Unlock()

	order, ok := o.orders[cancellation.OrderID]
	if !ok {
		logs.Warnf("cancellation for unknown order id: %d", cancellation.OrderID)
		return
	}

	order.CanceledVolume += cancellation.CanceledVolume
	order.Status = schema.OrderStatusCanceled

	ctx := o.riskCtx()
	o.chain.OnOrderCanceled(ctx, order, cancellation.CanceledVolume)
	if order.Completed() {
		delete(o.orders, order.Req.OrderID)
		o.chain.OnOrderCompleted(ctx, order)
	} else {
		logs.Warnf("partial cancellation left order live. id: %d, traded: %d, canceled: %d, original: %d",
			order.Req.OrderID, order.TradedVolume, order.CanceledVolume, order.Req.Volume)
	}
}

func (o *OMS) OnOrderCancelRejected(rejection schema.OrderCancelRejection) {
	o.metrics.IncCallback()
	logs.Warnf("cancel rejected. order id: %d, reason: %s",
		rejection.OrderID, rejection.Reason)
}

// OnTick records the last price and forwards the tick. It never takes
// the coordinator lock.
func (o *OMS) OnTick(tick schema.Tick) {
	o.metrics.IncTick()
	if int(tick.TickerID) < len(o.lastPrices) {
		o.lastPrices[tick.TickerID].Store(math.Float64bits(tick.LastPrice))
	}
	if o.opt.TickHandler != nil {
		o.opt.TickHandler(tick)
	}
}

// Shutdown logs out of the gateway. Pending callbacks delivered after
// shutdown are dropped by the gateway, not by the coordinator.
func (o *OMS) Shutdown() {
	o.gw.Logout()
}

// Account returns the latest broker account snapshot.
func (o *OMS) Account() schema.Account {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.account
}

// LiveOrders reports the number of orders still in the table.
func (o *OMS) LiveOrders() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.orders)
}

// Position returns a copy of the position for one instrument, or zero
// values when none exists yet.
func (o *OMS) Position(tickerID uint32) schema.Position {
	o.mu.Lock()
	defer o.mu.Unlock()
	if pos := o.portfolio.Position(tickerID); pos != nil {
		return *pos
	}
	return schema.Position{TickerID: tickerID}
}

func (o *OMS) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(o.opt.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.refresh()
		}
	}
}

// refresh overwrites the cached account wholesale and marks open
// positions to the last observed prices.
func (o *OMS) refresh() {
	account, err := o.gw.QueryAccount()
	if err != nil {
		logs.Warnf("account refresh failed: %+v", err)
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.account = account
	for tid := uint32(1); int(tid) < len(o.lastPrices); tid++ {
		bits := o.lastPrices[tid].Load()
		if bits == 0 {
			continue
		}
		if o.portfolio.Position(tid) == nil {
			continue
		}
		o.portfolio.UpdateFloatPnl(tid, math.Float64frombits(bits))
	}
}

// riskCtx builds the borrowed view handed to rules for one lock-held
// call. Callers must hold mu.
func (o *OMS) riskCtx() *risk.Context {
	return &risk.Context{
		Account:   &o.account,
		Portfolio: o.portfolio,
		Orders:    o.orders,
		Contracts: o.contracts,
		Publisher: o.publisher,
	}
}
