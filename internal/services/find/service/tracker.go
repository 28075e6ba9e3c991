package service

import (
	"context"
	"time"

	perr "github.com/alexmarder/hloc/internal/platform/errors"
	"github.com/alexmarder/hloc/internal/platform/logger"
	"github.com/alexmarder/hloc/internal/platform/queue"
	domdom "github.com/alexmarder/hloc/internal/services/domains/domain"
	"github.com/alexmarder/hloc/internal/services/find/domain"
)

// tracker stamps last_searched once per label per run, one commit per label
type tracker struct {
	log     logger.Logger
	port    domdom.SearchedPort
	q       *queue.Queue[int64]
	poll    time.Duration
	now     func() time.Time
	metrics *Metrics
	state   stateVar

	seen  map[int64]struct{}
	stats domain.TrackerStats
}

func newTracker(log logger.Logger, port domdom.SearchedPort, q *queue.Queue[int64], o domain.Options, now func() time.Time, m *Metrics) *tracker {
	return &tracker{
		log:     logger.Named(log, "tracker"),
		port:    port,
		q:       q,
		poll:    o.PollInterval,
		now:     now,
		metrics: m,
		seen:    map[int64]struct{}{},
	}
}

func (t *tracker) run(ctx context.Context) error {
	defer t.state.set(domain.StateStopped)

	depth := func(n int) { t.metrics.QueueDepth.WithLabelValues("rescans").Set(float64(n)) }
	if err := drain(ctx, t.q, t.poll, &t.state, depth, func(id int64) error {
		return t.touch(ctx, id)
	}); err != nil {
		return perr.WithOp(err, "tracker")
	}
	t.state.set(domain.StateFlushing)
	t.log.Info().
		Int64("touched", t.stats.Touched).
		Int64("duplicates", t.stats.Duplicates).
		Int64("missing", t.stats.Missing).
		Msg("tracker stopped")
	return nil
}

func (t *tracker) touch(ctx context.Context, labelID int64) error {
	t.stats.Received++
	if _, ok := t.seen[labelID]; ok {
		t.stats.Duplicates++
		return nil
	}
	t.seen[labelID] = struct{}{}

	err := t.port.TouchSearched(ctx, labelID, t.now())
	switch {
	case err == nil:
		t.stats.Touched++
		t.metrics.Touched.Inc()
		return nil
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		t.stats.Missing++
		t.log.Warn().Int64("label_id", labelID).Msg("label vanished before it could be marked searched")
		return nil
	default:
		return err
	}
}
