package bus

import (
	"sync"

	"github.com/yanun0323/logs"
)

// ResponsePublisher delivers encoded order-response frames back to the
// strategy they originated from.
type ResponsePublisher interface {
	Publish(strategyID string, frame []byte)
}

// Fanout is an in-process ResponsePublisher with one bounded channel per
// strategy id. Delivery is fire-and-forget: a slow subscriber drops
// frames rather than stalling the coordinator.
type Fanout struct {
	mu       sync.RWMutex
	capacity int
	subs     map[string]chan []byte
}

// NewFanout allocates a fanout with the given per-strategy capacity.
func NewFanout(capacity int) *Fanout {
	if capacity <= 0 {
		capacity = 1
	}
	return &Fanout{
		capacity: capacity,
		subs:     make(map[string]chan []byte),
	}
}

// Subscribe returns the response channel for a strategy, creating it on
// first use.
func (f *Fanout) Subscribe(strategyID string) <-chan []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.subs[strategyID]
	if !ok {
		ch = make(chan []byte, f.capacity)
		f.subs[strategyID] = ch
	}
	return ch
}

// Publish delivers a frame to the strategy's channel, dropping it when no
// subscriber exists or the channel is full.
func (f *Fanout) Publish(strategyID string, frame []byte) {
	f.mu.RLock()
	ch, ok := f.subs[strategyID]
	f.mu.RUnlock()
	if !ok {
		return
	}

	buf := make([]byte, len(frame))
	copy(buf, frame)
	select {
	case ch <- buf:
	default:
		logs.Warnf("response dropped, slow subscriber. strategy: %s", strategyID)
	}
}
