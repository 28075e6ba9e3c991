package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/alexmarder/hloc/internal/core/codeindex"
	"github.com/alexmarder/hloc/internal/core/matcher"
	"github.com/alexmarder/hloc/internal/platform/logger"
	"github.com/alexmarder/hloc/internal/platform/queue"
	domdom "github.com/alexmarder/hloc/internal/services/domains/domain"
	"github.com/alexmarder/hloc/internal/services/find/domain"
)

// workerCounters are read by Status while the worker runs
type workerCounters struct {
	domains atomic.Int64
	labels  atomic.Int64
	matches atomic.Int64
	done    atomic.Bool
}

type worker struct {
	id         int
	log        logger.Logger
	matcher    *matcher.Matcher
	shard      *sharder
	matches    *queue.Queue[domain.MatchMessage]
	rescans    *queue.Queue[int64]
	amount     int
	excludeSLD bool
	dryRun     bool
	cutoff     time.Time
	live       *workerCounters
	metrics    *Metrics
	progress   domain.Progress
}

// run pages the partition until it is exhausted or amount domains were processed
func (w *worker) run(ctx context.Context) (domain.WorkerStats, error) {
	st := domain.WorkerStats{Worker: w.id, ByType: map[codeindex.CodeType]int{}}
	defer w.live.done.Store(true)

	for {
		page, err := w.shard.next(ctx)
		if err != nil {
			return st, err
		}
		if len(page) == 0 {
			return st, nil
		}
		for _, d := range page {
			if w.amount > 0 && st.Entries >= w.amount {
				return st, nil
			}
			if err := w.domain(ctx, d, &st); err != nil {
				return st, err
			}
		}
	}
}

func (w *worker) domain(ctx context.Context, d domdom.Domain, st *domain.WorkerStats) error {
	st.Entries++
	w.live.domains.Add(1)
	w.metrics.Domains.Inc()
	if w.progress != nil {
		w.progress.Add(1)
	}

	matched := false
	for _, l := range d.Labels {
		if l.Position == 0 || (w.excludeSLD && l.Position == 1) {
			continue
		}
		// cooled down labels still count; one with hints counts as located
		st.Labels++
		st.LabelLength += len(l.Name)
		if l.SearchedSince(w.cutoff) {
			st.CooledDown++
			if l.HintCount > 0 {
				st.AlreadyHinted++
				st.LabelsWithMatch++
			}
			continue
		}

		res := w.matcher.Match(l.ID, l.SubLabels())
		w.live.labels.Add(1)
		w.metrics.Labels.Inc()
		if n := res.Total(); n > 0 {
			matched = true
			st.LabelsWithMatch++
			st.Matches += n
			for t, c := range res.Counts {
				st.ByType[t] += c
			}
			w.live.matches.Add(int64(n))
			w.metrics.observeMatches(res.Counts)
		}
		if w.dryRun {
			continue
		}
		if err := w.emit(ctx, l, res); err != nil {
			return err
		}
	}
	if matched {
		st.EntriesWithMatch++
	}
	return nil
}

// emit sends the delete, then the matches, then the label id. The first two share
// one queue so the aggregator sees them in that order
func (w *worker) emit(ctx context.Context, l domdom.Label, res matcher.Result) error {
	if l.LastSearched != nil || l.HintCount > 0 {
		if err := w.matches.Put(ctx, domain.DeleteAssociationsFor(l.ID)); err != nil {
			return err
		}
	}
	if len(res.Matches) > 0 {
		if err := w.matches.Put(ctx, domain.Batch(res.Matches)); err != nil {
			return err
		}
	}
	return w.rescans.Put(ctx, l.ID)
}

func (w *worker) logSummary(st domain.WorkerStats) {
	evt := w.log.Info().
		Int("worker", st.Worker).
		Int("entries", st.Entries).
		Int("labels", st.Labels).
		Int("label_length", st.LabelLength).
		Int("entries_with_match", st.EntriesWithMatch).
		Int("labels_with_match", st.LabelsWithMatch).
		Int("matches", st.Matches).
		Int("cooled_down", st.CooledDown)
	for t, n := range st.ByType {
		evt = evt.Int("matches_"+t.String(), n)
	}
	evt.Msg("worker done")
}
