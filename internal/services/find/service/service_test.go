package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexmarder/hloc/internal/core/blacklist"
	"github.com/alexmarder/hloc/internal/core/codeindex"
	perr "github.com/alexmarder/hloc/internal/platform/errors"
	"github.com/alexmarder/hloc/internal/platform/logger"
	"github.com/alexmarder/hloc/internal/platform/testkit"
	domdom "github.com/alexmarder/hloc/internal/services/domains/domain"
	"github.com/alexmarder/hloc/internal/services/find/domain"
	hintsdom "github.com/alexmarder/hloc/internal/services/hints/domain"
	locdom "github.com/alexmarder/hloc/internal/services/locations/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions() domain.Options {
	o := domain.DefaultOptions()
	o.PollInterval = 5 * time.Millisecond
	o.PageSize = 3
	o.Blacklists = blacklist.Paths{NoDefaults: true}
	return o
}

func newTestService(o domain.Options, ports Ports) *Service {
	s := New(o, ports, logger.Nop())
	s.Now = func() time.Time { return now }
	s.NewRunID = func() string { return "run-1" }
	return s
}

func berlinCatalog() *fakeCatalog {
	return &fakeCatalog{locs: []locdom.Location{
		{ID: 1, CityName: "Berlin"},
		{ID: 2, Airport: &locdom.AirportInfo{IATA: []string{"FRA"}}},
	}}
}

func TestRun_EndToEnd(t *testing.T) {
	shard := newFakeShard(
		mkDomain(1, "berlin-server.example.net", 10),
		mkDomain(2, "unrelated.example.net", 20),
	)
	searched := newFakeSearched()
	hints := newHintStore()
	sink := &memSink{}
	svc := newTestService(testOptions(), Ports{
		Catalog: berlinCatalog(), Shard: shard, Searched: searched, Sessions: hints, Summaries: sink,
	})

	rep, err := svc.Run(context.Background())
	require.NoError(t, err)

	key := hintsdom.NaturalKey{LocationID: 1, Code: "berlin", Type: codeindex.Geonames}
	id, ok := hints.hints[key]
	require.True(t, ok)
	assert.Len(t, hints.hints, 1)
	assert.Equal(t, []int64{12}, hints.labelsOf(id))

	// example at position 1 and both leaf labels were searched
	assert.ElementsMatch(t, []int64{11, 12, 21, 22}, keys(searched.touched))
	assert.Equal(t, now, searched.touched[12])

	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, 2, rep.Totals.Entries)
	assert.Equal(t, 4, rep.Totals.Labels)
	assert.Equal(t, 1, rep.Totals.Matches)
	assert.Equal(t, 1, rep.Totals.EntriesWithMatch)
	assert.Equal(t, 1, rep.Totals.ByType[codeindex.Geonames])
	assert.Equal(t, int64(1), rep.Aggregator.HintsCreated)
	assert.Equal(t, int64(1), rep.Aggregator.Associations)
	assert.Equal(t, int64(4), rep.Tracker.Touched)
	assert.Equal(t, 1, hints.commits)
	require.Len(t, sink.reports, 1)

	st := svc.Status()
	assert.False(t, st.Running)
	assert.Equal(t, "run-1", st.RunID)
	assert.Equal(t, domain.StateStopped, st.Aggregator)
	assert.Equal(t, domain.StateStopped, st.Tracker)
	require.Len(t, st.Workers, 1)
	assert.True(t, st.Workers[0].Done)
	assert.Equal(t, int64(2), st.Workers[0].Domains)
}

func TestRun_PartitionCompleteness(t *testing.T) {
	for workers := 1; workers <= 8; workers++ {
		var ds []domdom.Domain
		for id := int64(1); id <= 50; id++ {
			ds = append(ds, mkDomain(id, "host.example.net", id*10))
		}
		shard := newFakeShard(ds...)

		o := testOptions()
		o.Workers = workers
		o.DryRun = true
		rep, err := newTestService(o, Ports{Catalog: berlinCatalog(), Shard: shard}).Run(context.Background())
		require.NoError(t, err, "workers=%d", workers)

		assert.Equal(t, 50, rep.Totals.Entries, "workers=%d", workers)
		require.Len(t, shard.visits, 50, "workers=%d", workers)
		for id, n := range shard.visits {
			assert.Equal(t, 1, n, "domain %d with %d workers", id, workers)
		}
	}
}

func TestRun_SkipRulesAndDeleteMessages(t *testing.T) {
	recent := now.Add(-time.Hour)
	stale := now.Add(-30 * 24 * time.Hour)

	d := mkDomain(1, "fra1.berlin.example.net", 10)
	// positions: net 0, example 1, berlin 2, fra1 3
	d.Labels[2].LastSearched = &recent
	d.Labels[2].HintCount = 1
	d.Labels[3].LastSearched = &stale

	shard := newFakeShard(d)
	searched := newFakeSearched()
	hints := newHintStore()
	// a stale association for fra1 from an older run, plus one on another label
	hints.hints[hintsdom.NaturalKey{LocationID: 2, Code: "fra", Type: codeindex.IATA}] = 99
	hints.assoc[hintsdom.Association{HintID: 99, LabelID: 13}] = struct{}{}
	hints.assoc[hintsdom.Association{HintID: 99, LabelID: 500}] = struct{}{}
	hints.nextID = 100

	o := testOptions()
	o.ExcludeSLD = true
	svc := newTestService(o, Ports{Catalog: berlinCatalog(), Shard: shard, Searched: searched, Sessions: hints})

	rep, err := svc.Run(context.Background())
	require.NoError(t, err)

	// berlin is cooled down, example is excluded, fra1 is re-scanned
	assert.Equal(t, 2, rep.Totals.Labels)
	assert.Equal(t, 2, rep.Totals.LabelsWithMatch)
	assert.Equal(t, 1, rep.Totals.CooledDown)
	assert.Equal(t, 1, rep.Totals.AlreadyHinted)
	assert.Equal(t, []int64{13}, keys(searched.touched))
	assert.Equal(t, int64(1), rep.Aggregator.Deletes)

	// fra1 still matches fra, so the association is recreated; label 500 is untouched
	assert.Equal(t, []int64{13, 500}, hints.labelsOf(99))
}

func TestRun_CooledDownLabelsCountInSummary(t *testing.T) {
	searchedAt := now.Add(-time.Hour)
	d := mkDomain(1, "berlin.example.net", 10)
	for i := range d.Labels {
		d.Labels[i].LastSearched = &searchedAt
		d.Labels[i].HintCount = 1
	}

	o := testOptions()
	o.DryRun = true
	rep, err := newTestService(o, Ports{Catalog: berlinCatalog(), Shard: newFakeShard(d)}).Run(context.Background())
	require.NoError(t, err)

	// example and berlin, the TLD is never counted
	assert.Equal(t, 2, rep.Totals.Labels)
	assert.Equal(t, len("example")+len("berlin"), rep.Totals.LabelLength)
	assert.Equal(t, 2, rep.Totals.LabelsWithMatch)
	assert.Equal(t, 2, rep.Totals.CooledDown)
	assert.Equal(t, 2, rep.Totals.AlreadyHinted)
	assert.Zero(t, rep.Totals.Matches)
	assert.Zero(t, rep.Totals.EntriesWithMatch)
}

func TestRun_DebugCooldown(t *testing.T) {
	searchedAt := now.Add(-2 * time.Hour)
	d := mkDomain(1, "berlin.example.net", 10)
	d.Labels[2].LastSearched = &searchedAt

	o := testOptions()
	o.Debug = true
	o.DryRun = true
	rep, err := newTestService(o, Ports{Catalog: berlinCatalog(), Shard: newFakeShard(d)}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Totals.Matches)
	assert.Zero(t, rep.Totals.CooledDown)
}

func TestRun_AmountCapsEachWorker(t *testing.T) {
	var ds []domdom.Domain
	for id := int64(1); id <= 9; id++ {
		ds = append(ds, mkDomain(id, "berlin.example.net", id*10))
	}
	o := testOptions()
	o.Amount = 2
	o.Workers = 3
	o.DryRun = true
	p := &countingProgress{}
	svc := newTestService(o, Ports{Catalog: berlinCatalog(), Shard: newFakeShard(ds...)})
	svc.Progress = p

	rep, err := svc.Run(context.Background())
	require.NoError(t, err)
	for _, w := range rep.Workers {
		assert.Equal(t, 2, w.Entries)
	}
	assert.Equal(t, int64(6), p.total)
	assert.Equal(t, 6, p.added)
	assert.True(t, p.closed)
}

func TestRun_RejectsBadOptionsBeforeReading(t *testing.T) {
	cat := berlinCatalog()
	o := testOptions()
	o.IPVersion = "ipv5"
	_, err := newTestService(o, Ports{Catalog: cat, Shard: newFakeShard()}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
	assert.Zero(t, cat.calls)

	o = testOptions()
	o.Workers = 0
	_, err = newTestService(o, Ports{Catalog: cat, Shard: newFakeShard()}).Run(context.Background())
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))

	o = testOptions()
	_, err = newTestService(o, Ports{Catalog: cat, Shard: newFakeShard()}).Run(context.Background())
	assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))
}

func TestRun_BadContextBlacklistIsFatal(t *testing.T) {
	o := testOptions()
	o.DryRun = true
	o.Blacklists.Context = testkit.WriteFile(t, "ctx.json", "{not json")
	_, err := newTestService(o, Ports{Catalog: berlinCatalog(), Shard: newFakeShard()}).Run(context.Background())
	assert.True(t, perr.IsCode(err, perr.ErrorCodeConfig))
}

func TestRun_ConsumerFailureEndsRun(t *testing.T) {
	hints := newHintStore()
	hints.beginErr = errors.New("pool exhausted")
	var ds []domdom.Domain
	for id := int64(1); id <= 20; id++ {
		ds = append(ds, mkDomain(id, "berlin.example.net", id*10))
	}
	o := testOptions()
	o.FlushEvery = 1
	o.QueueSize = 1
	svc := newTestService(o, Ports{Catalog: berlinCatalog(), Shard: newFakeShard(ds...), Searched: newFakeSearched(), Sessions: hints})

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool exhausted")
	assert.False(t, svc.Status().Running)
}

func TestRun_WorkerFailureStillCommitsConsumers(t *testing.T) {
	shard := newFakeShard(mkDomain(1, "berlin.example.net", 10))
	shard.err = errors.New("connection reset")
	hints := newHintStore()
	svc := newTestService(testOptions(), Ports{Catalog: berlinCatalog(), Shard: shard, Searched: newFakeSearched(), Sessions: hints})

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Zero(t, hints.rollbacks)
}

func TestRun_MetricsExposed(t *testing.T) {
	shard := newFakeShard(mkDomain(1, "berlin.example.net", 10))
	o := testOptions()
	o.DryRun = true
	svc := newTestService(o, Ports{Catalog: berlinCatalog(), Shard: shard})
	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	mfs, err := svc.Metrics.Registry().Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				got[mf.GetName()] += c.GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, got["hloc_find_domains_total"])
	assert.Equal(t, 2.0, got["hloc_find_labels_total"])
	assert.Equal(t, 1.0, got["hloc_find_matches_total"])
}

func keys[V any](m map[int64]V) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
