package risk

import (
	"time"

	"github.com/yanun0323/logs"

	"main/internal/schema"
)

// ThrottleRule caps the number of orders and the total order volume
// sent inside a sliding time window.
type ThrottleRule struct {
	NopRule

	period      time.Duration
	orderLimit  int
	volumeLimit int

	orderTimes []orderEntry
	volumes    []volumeEntry

	now func() time.Time
}

type orderEntry struct {
	ts      time.Time
	orderID uint64
}

type volumeEntry struct {
	ts      time.Time
	orderID uint64
	volume  int
}

func NewThrottleRule() *ThrottleRule {
	return &ThrottleRule{now: time.Now}
}

func (r *ThrottleRule) Init(ctx *Context, cfg Config) error {
	r.period = time.Duration(cfg.Throttle.PeriodMs) * time.Millisecond
	r.orderLimit = cfg.Throttle.OrderLimit
	r.volumeLimit = cfg.Throttle.VolumeLimit
	if r.period > 0 {
		logs.Infof("order throttle enabled. period: %s, order limit: %d, volume limit: %d",
			r.period, r.orderLimit, r.volumeLimit)
	}
	return nil
}

func (r *ThrottleRule) CheckOrderRequest(ctx *Context, order *schema.Order) schema.ErrorCode {
	if r.period <= 0 {
		return schema.NoError
	}

	now := r.now()
	r.evict(now)

	if r.orderLimit > 0 && len(r.orderTimes) >= r.orderLimit {
		logs.Warnf("order rate limit hit. limit: %d orders per %s", r.orderLimit, r.period)
		return schema.ErrRateLimited
	}

	if r.volumeLimit > 0 {
		total := order.Req.Volume
		for _, e := range r.volumes {
			total += e.volume
		}
		if total > r.volumeLimit {
			logs.Warnf("volume rate limit hit. limit: %d per %s, pending: %d",
				r.volumeLimit, r.period, total)
			return schema.ErrRateLimited
		}
	}

	if r.orderLimit > 0 {
		r.orderTimes = append(r.orderTimes, orderEntry{ts: now, orderID: order.Req.OrderID})
	}
	if r.volumeLimit > 0 {
		r.volumes = append(r.volumes, volumeEntry{ts: now, orderID: order.Req.OrderID, volume: order.Req.Volume})
	}
	return schema.NoError
}

func (r *ThrottleRule) OnOrderRejected(ctx *Context, order *schema.Order, code schema.ErrorCode) {
	// An order that never reached the exchange should not consume
	// either window; pop its records so the slots free up immediately.
	if !code.IsPreSend() {
		return
	}
	for i := len(r.volumes) - 1; i >= 0; i-- {
		if r.volumes[i].orderID == order.Req.OrderID {
			r.volumes = append(r.volumes[:i], r.volumes[i+1:]...)
			break
		}
	}
	for i := len(r.orderTimes) - 1; i >= 0; i-- {
		if r.orderTimes[i].orderID == order.Req.OrderID {
			r.orderTimes = append(r.orderTimes[:i], r.orderTimes[i+1:]...)
			break
		}
	}
}

func (r *ThrottleRule) evict(now time.Time) {
	cutoff := now.Add(-r.period)
	for len(r.orderTimes) > 0 && !r.orderTimes[0].ts.After(cutoff) {
		r.orderTimes = r.orderTimes[1:]
	}
	for len(r.volumes) > 0 && !r.volumes[0].ts.After(cutoff) {
		r.volumes = r.volumes[1:]
	}
}
