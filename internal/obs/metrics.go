package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

const (
	maxCmdType   = int(schema.CmdNotify)
	maxErrorCode = int(schema.ErrRejected)
)

// Metrics collects lightweight counters and latency stats.
type Metrics struct {
	commandCounts [maxCmdType + 1]uint64
	rejectCounts  [maxErrorCode + 1]uint64
	callbacks     uint64
	ticks         uint64
	queueDrops    uint64
	queueClosed   uint64

	sendLatency     LatencyStats
	callbackLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	CommandCounts   map[schema.CmdType]uint64
	RejectCounts    map[schema.ErrorCode]uint64
	Callbacks       uint64
	Ticks           uint64
	QueueDrops      uint64
	QueueClosed     uint64
	SendLatency     LatencySnapshot
	CallbackLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncCommand counts one strategy command by type.
func (m *Metrics) IncCommand(t schema.CmdType) {
	if m == nil {
		return
	}
	idx := int(t)
	if idx >= 0 && idx < len(m.commandCounts) {
		atomic.AddUint64(&m.commandCounts[idx], 1)
	}
}

// IncReject counts one order failure by error code.
func (m *Metrics) IncReject(code schema.ErrorCode) {
	if m == nil {
		return
	}
	idx := int(code)
	if idx >= 0 && idx < len(m.rejectCounts) {
		atomic.AddUint64(&m.rejectCounts[idx], 1)
	}
}

// IncCallback counts one gateway order callback.
func (m *Metrics) IncCallback() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.callbacks, 1)
}

// IncTick counts one market data tick.
func (m *Metrics) IncTick() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ticks, 1)
}

// IncQueueDrop records a queue drop.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a closed-queue publish attempt.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// ObserveSend measures admission-through-dispatch latency.
func (m *Metrics) ObserveSend(d time.Duration) {
	if m == nil {
		return
	}
	m.sendLatency.Observe(d)
}

// ObserveCallback measures order callback handling latency.
func (m *Metrics) ObserveCallback(d time.Duration) {
	if m == nil {
		return
	}
	m.callbackLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	commandCounts := make(map[schema.CmdType]uint64)
	for i := range m.commandCounts {
		if v := atomic.LoadUint64(&m.commandCounts[i]); v > 0 {
			commandCounts[schema.CmdType(i)] = v
		}
	}
	rejectCounts := make(map[schema.ErrorCode]uint64)
	for i := range m.rejectCounts {
		if v := atomic.LoadUint64(&m.rejectCounts[i]); v > 0 {
			rejectCounts[schema.ErrorCode(i)] = v
		}
	}
	return Snapshot{
		CommandCounts:   commandCounts,
		RejectCounts:    rejectCounts,
		Callbacks:       atomic.LoadUint64(&m.callbacks),
		Ticks:           atomic.LoadUint64(&m.ticks),
		QueueDrops:      atomic.LoadUint64(&m.queueDrops),
		QueueClosed:     atomic.LoadUint64(&m.queueClosed),
		SendLatency:     m.sendLatency.Snapshot(),
		CallbackLatency: m.callbackLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
