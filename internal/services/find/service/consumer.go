package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/alexmarder/hloc/internal/platform/queue"
	"github.com/alexmarder/hloc/internal/services/find/domain"
)

// stateVar holds a domain.State readable from Status
type stateVar struct{ v atomic.Int32 }

func (s *stateVar) set(st domain.State) { s.v.Store(int32(st)) }
func (s *stateVar) get() domain.State  { return domain.State(s.v.Load()) }

// drain receives from q until Stop was called and the queue is empty.
// A poll timeout only re-checks the stop flag; once it is raised the consumer is DRAINING
func drain[T any](ctx context.Context, q *queue.Queue[T], poll time.Duration, state *stateVar, depth func(int), handle func(T) error) error {
	state.set(domain.StateRunning)
	for {
		v, err := q.Get(ctx, poll)
		if q.Stopped() && state.get() == domain.StateRunning {
			state.set(domain.StateDraining)
		}
		switch {
		case err == nil:
		case errors.Is(err, queue.ErrTimeout):
			continue
		case errors.Is(err, queue.ErrDrained):
			return nil
		default:
			return err
		}
		if depth != nil {
			depth(q.Len())
		}
		if err := handle(v); err != nil {
			return err
		}
	}
}
