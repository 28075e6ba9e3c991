package service

import (
	"net/http"

	"github.com/alexmarder/hloc/internal/core/codeindex"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics lives on a private registry so several services can coexist in one process and in tests
type Metrics struct {
	reg *prometheus.Registry

	Domains       prometheus.Counter
	Labels        prometheus.Counter
	Matches       *prometheus.CounterVec
	HintsCreated  prometheus.Counter
	Associations  prometheus.Counter
	Deletes       prometheus.Counter
	Flushes       prometheus.Counter
	Commits       prometheus.Counter
	Touched       prometheus.Counter
	QueueDepth    *prometheus.GaugeVec
	WorkersActive prometheus.Gauge
	RunDuration   prometheus.Histogram
}

// NewMetrics registers the find collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Domains: f.NewCounter(prometheus.CounterOpts{
			Name: "hloc_find_domains_total",
			Help: "Domains read by search workers",
		}),
		Labels: f.NewCounter(prometheus.CounterOpts{
			Name: "hloc_find_labels_total",
			Help: "Labels run through the matcher",
		}),
		Matches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hloc_find_matches_total",
			Help: "Raw matches emitted by search workers",
		}, []string{"code_type"}),
		HintsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "hloc_find_hints_upserted_total",
			Help: "Hint keys persisted by the aggregator",
		}),
		Associations: f.NewCounter(prometheus.CounterOpts{
			Name: "hloc_find_associations_inserted_total",
			Help: "New hint to label associations",
		}),
		Deletes: f.NewCounter(prometheus.CounterOpts{
			Name: "hloc_find_association_deletes_total",
			Help: "Labels whose stored associations were dropped before a re-scan",
		}),
		Flushes: f.NewCounter(prometheus.CounterOpts{
			Name: "hloc_find_flushes_total",
			Help: "Aggregator flushes",
		}),
		Commits: f.NewCounter(prometheus.CounterOpts{
			Name: "hloc_find_commits_total",
			Help: "Aggregator transaction commits",
		}),
		Touched: f.NewCounter(prometheus.CounterOpts{
			Name: "hloc_find_labels_touched_total",
			Help: "Labels stamped with last_searched",
		}),
		QueueDepth: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hloc_find_queue_depth",
			Help: "Items waiting in a run queue",
		}, []string{"queue"}),
		WorkersActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "hloc_find_workers_active",
			Help: "Search workers still paging",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hloc_find_run_duration_seconds",
			Help:    "Wall time of completed runs",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
}

// Registry exposes the collectors, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) observeMatches(counts map[codeindex.CodeType]int) {
	for t, n := range counts {
		m.Matches.WithLabelValues(t.String()).Add(float64(n))
	}
}
