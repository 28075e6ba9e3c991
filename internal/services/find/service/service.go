// Package service runs the find pipeline: sharded search workers feed a match
// aggregator and a rescan tracker over two queues
package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/alexmarder/hloc/internal/core/blacklist"
	"github.com/alexmarder/hloc/internal/core/codeindex"
	"github.com/alexmarder/hloc/internal/core/matcher"
	perr "github.com/alexmarder/hloc/internal/platform/errors"
	"github.com/alexmarder/hloc/internal/platform/logger"
	"github.com/alexmarder/hloc/internal/platform/queue"
	domdom "github.com/alexmarder/hloc/internal/services/domains/domain"
	"github.com/alexmarder/hloc/internal/services/find/domain"
	hintsdom "github.com/alexmarder/hloc/internal/services/hints/domain"
	locdom "github.com/alexmarder/hloc/internal/services/locations/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Ports are the collaborators a run reads from and writes to
type Ports struct {
	Catalog  locdom.CatalogPort
	Shard    domdom.ShardPort
	Searched domdom.SearchedPort
	Sessions hintsdom.SessionPort
	// Summaries is optional
	Summaries domain.SummarySink
}

// Service implements domain.RunnerPort and domain.StatusPort
type Service struct {
	Opts     domain.Options
	Ports    Ports
	Log      logger.Logger
	Metrics  *Metrics
	Progress domain.Progress
	Now      func() time.Time
	NewRunID func() string

	running atomic.Bool
	current atomic.Pointer[run]
}

// New constructs the find service
func New(opts domain.Options, ports Ports, log logger.Logger) *Service {
	return &Service{
		Opts:     opts,
		Ports:    ports,
		Log:      logger.Named(log, "find"),
		Metrics:  NewMetrics(),
		Now:      time.Now,
		NewRunID: func() string { return uuid.NewString() },
	}
}

// run is the live state of one Run call
type run struct {
	id         string
	startedAt  time.Time
	workers    []*workerCounters
	matches    *queue.Queue[domain.MatchMessage]
	rescans    *queue.Queue[int64]
	aggregator *aggregator
	tracker    *tracker
}

// Run performs one pass over the search population. Options are checked before
// anything is read; a second concurrent call fails
func (s *Service) Run(ctx context.Context) (domain.Report, error) {
	o := s.Opts
	if err := o.Validate(); err != nil {
		return domain.Report{}, err
	}
	if s.Ports.Shard == nil || s.Ports.Catalog == nil {
		return domain.Report{}, perr.Unavailablef("find: catalog and domain ports are required")
	}
	if !o.DryRun && (s.Ports.Searched == nil || s.Ports.Sessions == nil) {
		return domain.Report{}, perr.Unavailablef("find: hint and label writers are required unless dry run")
	}
	if !s.running.CompareAndSwap(false, true) {
		return domain.Report{}, perr.Unavailablef("find: a run is already in progress")
	}
	defer s.running.Store(false)

	rep := domain.Report{RunID: s.NewRunID(), StartedAt: s.Now().UTC(), DryRun: o.DryRun}
	log := s.Log.With().Str("run_id", rep.RunID).Logger()

	bl, err := blacklist.Load(o.Blacklists)
	if err != nil {
		return rep, err
	}
	locs, err := s.Ports.Catalog.All(ctx)
	if err != nil {
		return rep, perr.WithOp(err, "find.catalog")
	}
	idx := codeindex.Build(locdom.Entries(locs), bl.Codes, bl.Words)
	rep.IndexKeys, rep.IndexNodes = idx.Len(), idx.Nodes()
	log.Info().
		Int("locations", len(locs)).
		Int("keys", rep.IndexKeys).
		Int("nodes", rep.IndexNodes).
		Int("code_blacklist", len(bl.Codes)).
		Int("word_blacklist", len(bl.Words)).
		Msg("code index built")
	m := matcher.New(idx, bl)

	r := &run{
		id:        rep.RunID,
		startedAt: rep.StartedAt,
		matches:   queue.New[domain.MatchMessage](o.QueueSize),
		rescans:   queue.New[int64](o.QueueSize),
	}
	for range o.Workers {
		r.workers = append(r.workers, &workerCounters{})
	}
	if !o.DryRun {
		r.aggregator = newAggregator(log, s.Ports.Sessions, r.matches, o, s.Metrics)
		r.tracker = newTracker(log, s.Ports.Searched, r.rescans, o, s.Now, s.Metrics)
	}
	s.current.Store(r)

	if s.Progress != nil {
		s.startProgress(ctx, log, o)
		defer s.Progress.Finish()
	}

	// consumers first so workers never block on a queue nobody reads
	cg, cctx := errgroup.WithContext(ctx)
	if !o.DryRun {
		cg.Go(func() error { return r.aggregator.run(cctx) })
		cg.Go(func() error { return r.tracker.run(cctx) })
	}

	cutoff := s.Now().Add(-o.EffectiveCooldown())
	stats := make([]domain.WorkerStats, o.Workers)
	wg, wctx := errgroup.WithContext(cctx)
	for i := range o.Workers {
		w := &worker{
			id:      i,
			log:     log,
			matcher: m,
			shard: newSharder(s.Ports.Shard, domdom.ShardInput{
				Worker: i, Workers: o.Workers, Limit: o.PageSize,
				Classes: o.Classes(), IPVersion: o.IPVersion,
			}),
			matches:    r.matches,
			rescans:    r.rescans,
			amount:     o.Amount,
			excludeSLD: o.ExcludeSLD,
			dryRun:     o.DryRun,
			cutoff:     cutoff,
			live:       r.workers[i],
			metrics:    s.Metrics,
			progress:   s.Progress,
		}
		wg.Go(func() error {
			s.Metrics.WorkersActive.Inc()
			defer s.Metrics.WorkersActive.Dec()
			st, err := w.run(wctx)
			stats[i] = st
			w.logSummary(st)
			if err != nil {
				return perr.WithOp(err, "find.worker")
			}
			return nil
		})
	}

	werr := wg.Wait()
	r.matches.Stop()
	r.rescans.Stop()
	cerr := cg.Wait()

	rep.FinishedAt = s.Now().UTC()
	rep.Workers = stats
	for _, st := range stats {
		rep.Totals.Add(st)
	}
	if r.aggregator != nil {
		rep.Aggregator = r.aggregator.stats
		rep.Tracker = r.tracker.stats
	}
	s.Metrics.RunDuration.Observe(rep.FinishedAt.Sub(rep.StartedAt).Seconds())

	switch {
	case cerr != nil:
		return rep, cerr
	case werr != nil:
		return rep, werr
	}

	log.Info().
		Int("entries", rep.Totals.Entries).
		Int("labels", rep.Totals.Labels).
		Int("matches", rep.Totals.Matches).
		Int64("hints", rep.Aggregator.HintsCreated).
		Int64("associations", rep.Aggregator.Associations).
		Int64("labels_touched", rep.Tracker.Touched).
		Dur("elapsed", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("find run done")

	if s.Ports.Summaries != nil {
		if err := s.Ports.Summaries.WriteSummary(ctx, rep); err != nil {
			log.Warn().Err(err).Msg("run summary not stored")
		}
	}
	return rep, nil
}

func (s *Service) startProgress(ctx context.Context, log logger.Logger, o domain.Options) {
	total, err := s.Ports.Shard.CountPopulation(ctx, o.Classes(), o.IPVersion)
	if err != nil {
		log.Warn().Err(err).Msg("population count unavailable")
		total = -1
	}
	if o.Amount > 0 && total >= 0 {
		total = min(total, int64(o.Amount)*int64(o.Workers))
	}
	s.Progress.Start(total)
}

// Status implements domain.StatusPort; it reports the last run once it finished
func (s *Service) Status() domain.Status {
	r := s.current.Load()
	st := domain.Status{Running: s.running.Load(), Workers: []domain.WorkerStatus{}}
	if r == nil {
		return st
	}
	started := r.startedAt
	st.RunID = r.id
	st.StartedAt = &started
	for i, c := range r.workers {
		st.Workers = append(st.Workers, domain.WorkerStatus{
			Worker:  i,
			Domains: c.domains.Load(),
			Labels:  c.labels.Load(),
			Matches: c.matches.Load(),
			Done:    c.done.Load(),
		})
	}
	st.Matches = domain.QueueStatus{Depth: r.matches.Len(), Puts: r.matches.Puts(), Gets: r.matches.Gets()}
	st.Rescans = domain.QueueStatus{Depth: r.rescans.Len(), Puts: r.rescans.Puts(), Gets: r.rescans.Gets()}
	if r.aggregator != nil {
		st.Aggregator = r.aggregator.state.get()
		st.Tracker = r.tracker.state.get()
	}
	return st
}
