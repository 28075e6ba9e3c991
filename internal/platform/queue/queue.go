// Package queue provides a multi-producer single-consumer queue whose receive
// side polls with a timeout so consumers can re-check their stop condition.
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrTimeout is returned by Get when nothing arrived within the poll window
	ErrTimeout = errors.New("queue: poll timeout")

	// ErrDrained is returned by Get once Stop was called and every item has been received
	ErrDrained = errors.New("queue: drained")

	// ErrStopped is returned by Put after Stop
	ErrStopped = errors.New("queue: stopped")
)

// DefaultSize is the channel capacity used when New gets size <= 0
const DefaultSize = 4096

// Queue is a bounded FIFO. Items from a single producer are received in the order they were put
type Queue[T any] struct {
	ch      chan T
	stopped chan struct{}
	once    sync.Once

	mu     sync.RWMutex // guards send vs close of ch
	closed bool
	puts   atomic.Int64
	gets   atomic.Int64
}

// New returns a queue with the given capacity
func New[T any](size int) *Queue[T] {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue[T]{ch: make(chan T, size), stopped: make(chan struct{})}
}

// Put enqueues v, blocking while the queue is full. It fails with ctx.Err()
// if ctx ends first, and with ErrStopped once Stop was called
func (q *Queue[T]) Put(ctx context.Context, v T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrStopped
	}
	select {
	case q.ch <- v:
		q.puts.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.stopped:
		return ErrStopped
	}
}

// Get waits up to timeout for the next item.
// ErrTimeout means the caller should re-check its state and poll again.
// ErrDrained means Stop was called and nothing is left
func (q *Queue[T]) Get(ctx context.Context, timeout time.Duration) (T, error) {
	var zero T

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case v, ok := <-q.ch:
		if !ok {
			return zero, ErrDrained
		}
		q.gets.Add(1)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-t.C:
		return zero, ErrTimeout
	}
}

// Stop signals that no more items will be put. Items already queued remain
// receivable. Safe to call more than once
func (q *Queue[T]) Stop() {
	q.once.Do(func() {
		close(q.stopped)
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
	})
}

// Stopped reports whether Stop was called
func (q *Queue[T]) Stopped() bool {
	select {
	case <-q.stopped:
		return true
	default:
		return false
	}
}

// Len is the number of queued items
func (q *Queue[T]) Len() int { return len(q.ch) }

// Puts and Gets are lifetime counters for status reporting
func (q *Queue[T]) Puts() int64 { return q.puts.Load() }

func (q *Queue[T]) Gets() int64 { return q.gets.Load() }
