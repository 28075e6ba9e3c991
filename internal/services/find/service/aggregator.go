package service

import (
	"context"
	"time"

	perr "github.com/alexmarder/hloc/internal/platform/errors"
	"github.com/alexmarder/hloc/internal/platform/logger"
	"github.com/alexmarder/hloc/internal/platform/queue"
	"github.com/alexmarder/hloc/internal/services/find/domain"
	hintsdom "github.com/alexmarder/hloc/internal/services/hints/domain"
)

type labelSet map[int64]struct{}

// hintRecord is the in flight state of one natural key. id is 0 until the first flush
type hintRecord struct {
	key     hintsdom.NaturalKey
	id      int64
	pending labelSet
	flushed labelSet
}

func (r *hintRecord) has(labelID int64) bool {
	if _, ok := r.pending[labelID]; ok {
		return true
	}
	_, ok := r.flushed[labelID]
	return ok
}

// aggregator is the only writer of hints and associations. It is not safe for concurrent use
type aggregator struct {
	log         logger.Logger
	sessions    hintsdom.SessionPort
	q           *queue.Queue[domain.MatchMessage]
	poll        time.Duration
	flushEvery  int
	commitEvery int
	metrics     *Metrics
	state       stateVar

	hints   map[hintsdom.NaturalKey]*hintRecord
	fresh   []*hintRecord // created since the last flush
	touched []*hintRecord // have pending labels
	labels  labelSet      // deleted or matched during this run

	processed int // matches since the last flush
	flushes   int // flushes since the last commit
	sess      hintsdom.Session
	stats     domain.AggregatorStats
}

func newAggregator(log logger.Logger, sessions hintsdom.SessionPort, q *queue.Queue[domain.MatchMessage], o domain.Options, m *Metrics) *aggregator {
	return &aggregator{
		log:         logger.Named(log, "aggregator"),
		sessions:    sessions,
		q:           q,
		poll:        o.PollInterval,
		flushEvery:  o.FlushEvery,
		commitEvery: o.CommitEvery,
		metrics:     m,
		hints:       map[hintsdom.NaturalKey]*hintRecord{},
		labels:      labelSet{},
	}
}

// run drains the queue, then flushes and commits what is left.
// On error the open transaction is rolled back and uncommitted work is lost
func (a *aggregator) run(ctx context.Context) (err error) {
	defer func() {
		if err != nil && a.sess != nil {
			_ = a.sess.Rollback(context.WithoutCancel(ctx))
			a.sess = nil
		}
		a.state.set(domain.StateStopped)
	}()

	depth := func(n int) { a.metrics.QueueDepth.WithLabelValues("matches").Set(float64(n)) }
	if err := drain(ctx, a.q, a.poll, &a.state, depth, func(m domain.MatchMessage) error {
		return a.handle(ctx, m)
	}); err != nil {
		return perr.WithOp(err, "aggregator")
	}

	a.state.set(domain.StateFlushing)
	if err := a.flush(ctx); err != nil {
		return perr.WithOp(err, "aggregator.final_flush")
	}
	if err := a.commit(ctx); err != nil {
		return perr.WithOp(err, "aggregator.final_commit")
	}
	a.log.Info().
		Int64("hints", a.stats.HintsCreated).
		Int64("associations", a.stats.Associations).
		Int64("deletes", a.stats.Deletes).
		Int64("flushes", a.stats.Flushes).
		Int64("commits", a.stats.Commits).
		Int("keys", len(a.hints)).
		Msg("aggregator stopped")
	return nil
}

func (a *aggregator) handle(ctx context.Context, m domain.MatchMessage) error {
	a.stats.Messages++
	if m.IsDelete() {
		return a.deleteFor(ctx, m.DeleteFor)
	}
	for _, rm := range m.Matches {
		a.add(rm)
		if a.processed >= a.flushEvery {
			if err := a.flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// add folds one match into its hint record; repeated (key, label) pairs are no-ops
func (a *aggregator) add(rm domain.RawMatch) {
	a.stats.Matches++
	a.processed++
	a.labels[rm.LabelID] = struct{}{}

	key := hintsdom.NaturalKey{LocationID: rm.LocationID, Code: rm.Code, Type: rm.Type}
	rec, ok := a.hints[key]
	if !ok {
		rec = &hintRecord{key: key}
		a.hints[key] = rec
		a.fresh = append(a.fresh, rec)
	}
	if rec.has(rm.LabelID) {
		return
	}
	if len(rec.pending) == 0 {
		a.touched = append(a.touched, rec)
	}
	if rec.pending == nil {
		rec.pending = labelSet{}
	}
	rec.pending[rm.LabelID] = struct{}{}
}

// deleteFor drops the stored associations of a label once per run. A label that already
// received matches in this run keeps them, since they are the result of the re-scan
func (a *aggregator) deleteFor(ctx context.Context, labelID int64) error {
	if _, ok := a.labels[labelID]; ok {
		return nil
	}
	a.labels[labelID] = struct{}{}
	if err := a.flush(ctx); err != nil {
		return err
	}
	sess, err := a.session(ctx)
	if err != nil {
		return err
	}
	n, err := sess.DeleteAssociations(ctx, labelID)
	if err != nil {
		return err
	}
	a.stats.Deletes++
	a.stats.DeletedRows += n
	a.metrics.Deletes.Inc()
	return nil
}

func (a *aggregator) session(ctx context.Context) (hintsdom.Session, error) {
	if a.sess != nil {
		return a.sess, nil
	}
	s, err := a.sessions.Begin(ctx)
	if err != nil {
		return nil, err
	}
	a.sess = s
	return s, nil
}

// flush persists new hints, then one association per pending (hint, label) pair
func (a *aggregator) flush(ctx context.Context) error {
	a.processed = 0
	if len(a.fresh) == 0 && len(a.touched) == 0 {
		return nil
	}
	sess, err := a.session(ctx)
	if err != nil {
		return err
	}

	if len(a.fresh) > 0 {
		keys := make([]hintsdom.NaturalKey, len(a.fresh))
		for i, r := range a.fresh {
			keys[i] = r.key
		}
		ids, err := sess.UpsertHints(ctx, keys)
		if err != nil {
			return err
		}
		for _, r := range a.fresh {
			id, ok := ids[r.key]
			if !ok {
				return perr.DBf("hint %d/%s/%s missing from upsert result", r.key.LocationID, r.key.Code, r.key.Type)
			}
			r.id = id
		}
		a.stats.HintsCreated += int64(len(a.fresh))
		a.metrics.HintsCreated.Add(float64(len(a.fresh)))
		a.fresh = a.fresh[:0]
	}

	var as []hintsdom.Association
	for _, r := range a.touched {
		for l := range r.pending {
			as = append(as, hintsdom.Association{HintID: r.id, LabelID: l})
		}
	}
	n, err := sess.InsertAssociations(ctx, as)
	if err != nil {
		return err
	}
	for _, r := range a.touched {
		if r.flushed == nil {
			r.flushed = make(labelSet, len(r.pending))
		}
		for l := range r.pending {
			r.flushed[l] = struct{}{}
		}
		r.pending = nil
	}
	a.touched = a.touched[:0]

	a.stats.Associations += n
	a.stats.Flushes++
	a.metrics.Associations.Add(float64(n))
	a.metrics.Flushes.Inc()
	a.flushes++
	if a.flushes >= a.commitEvery {
		return a.commit(ctx)
	}
	return nil
}

func (a *aggregator) commit(ctx context.Context) error {
	a.flushes = 0
	if a.sess == nil {
		return nil
	}
	err := a.sess.Commit(ctx)
	a.sess = nil
	if err != nil {
		return err
	}
	a.stats.Commits++
	a.metrics.Commits.Inc()
	a.log.Debug().Int64("commits", a.stats.Commits).Int("keys", len(a.hints)).Msg("committed")
	return nil
}
