package bus

import (
	"context"
	"sync/atomic"

	"github.com/yanun0323/errors"
)

var (
	ErrQueueFull   = errors.New("command queue full")
	ErrQueueClosed = errors.New("command queue closed")
)

// Frame is one raw wire frame passed through the in-memory bus.
type Frame struct {
	Data []byte
}

// Queue is the bounded, non-blocking command queue between strategies and
// the coordinator. Producers never block; a full queue drops the command,
// matching the fire-and-forget transport semantics.
type Queue struct {
	ch     chan Frame
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Frame, capacity)}
}

// TryPublish enqueues a frame without blocking.
func (q *Queue) TryPublish(f Frame) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- f:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the queue from accepting new frames.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}

// Run consumes frames until the context is done or the queue is closed.
func (q *Queue) Run(ctx context.Context, handler func(Frame)) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-q.ch:
			if !ok {
				return
			}
			handler(f)
		}
	}
}
