// Package repo stores run summaries in ClickHouse
package repo

import (
	"context"

	"github.com/alexmarder/hloc/internal/platform/store"
	"github.com/alexmarder/hloc/internal/services/find/domain"
)

// Table holds one row per worker per run
const Table = "find_run_summaries"

const ddl = `
CREATE TABLE IF NOT EXISTS ` + Table + ` (
    run_id             String,
    worker             Int32,
    started_at         DateTime64(3, 'UTC'),
    finished_at        DateTime64(3, 'UTC'),
    dry_run            Bool,
    entries            UInt64,
    labels             UInt64,
    label_length       UInt64,
    entries_with_match UInt64,
    labels_with_match  UInt64,
    matches            UInt64,
    cooled_down        UInt64,
    already_hinted     UInt64,
    by_type            Map(String, UInt64)
)
ENGINE = MergeTree
ORDER BY (started_at, run_id, worker)`

// Summaries implements domain.SummarySink
type Summaries struct {
	ch store.Clickhouse
}

// NewCH returns a sink writing through ch
func NewCH(ch store.Clickhouse) *Summaries { return &Summaries{ch: ch} }

// EnsureTable creates the summary table when missing
func (s *Summaries) EnsureTable(ctx context.Context) error {
	return s.ch.Exec(ctx, ddl)
}

// WriteSummary appends one row per worker
func (s *Summaries) WriteSummary(ctx context.Context, r domain.Report) error {
	rows := make([][]any, 0, len(r.Workers))
	for _, w := range r.Workers {
		byType := make(map[string]uint64, len(w.ByType))
		for t, n := range w.ByType {
			byType[t.String()] = uint64(n)
		}
		rows = append(rows, []any{
			r.RunID,
			int32(w.Worker),
			r.StartedAt,
			r.FinishedAt,
			r.DryRun,
			uint64(w.Entries),
			uint64(w.Labels),
			uint64(w.LabelLength),
			uint64(w.EntriesWithMatch),
			uint64(w.LabelsWithMatch),
			uint64(w.Matches),
			uint64(w.CooledDown),
			uint64(w.AlreadyHinted),
			byType,
		})
	}
	return s.ch.Insert(ctx, Table, rows)
}
