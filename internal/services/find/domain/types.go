// Package domain defines the find run: queue messages, options, statistics and run status
package domain

import (
	"time"

	"github.com/alexmarder/hloc/internal/core/codeindex"
	"github.com/alexmarder/hloc/internal/core/matcher"
)

// RawMatch is one code found in one label; it is folded into a hint and an association
type RawMatch = matcher.Match

// MatchMessage travels on the match queue. A message with DeleteFor set asks the
// aggregator to drop the stored associations of that label; otherwise it carries matches
type MatchMessage struct {
	DeleteFor int64
	Matches   []RawMatch
}

// DeleteAssociationsFor builds the control message sent before a label is re-scanned
func DeleteAssociationsFor(labelID int64) MatchMessage { return MatchMessage{DeleteFor: labelID} }

// Batch wraps matches of one label
func Batch(ms []RawMatch) MatchMessage { return MatchMessage{Matches: ms} }

// IsDelete reports whether m is a control message
func (m MatchMessage) IsDelete() bool { return m.DeleteFor != 0 }

// WorkerStats is the per worker run summary
type WorkerStats struct {
	Worker           int                        `json:"worker"`
	Entries          int                        `json:"entries"`
	Labels           int                        `json:"labels"`
	LabelLength      int                        `json:"label_length"`
	EntriesWithMatch int                        `json:"entries_with_match"`
	LabelsWithMatch  int                        `json:"labels_with_match"`
	Matches          int                        `json:"matches"`
	CooledDown       int                        `json:"cooled_down"`
	AlreadyHinted    int                        `json:"already_hinted"`
	ByType           map[codeindex.CodeType]int `json:"by_type"`
}

// Add folds o into s; Worker is left alone
func (s *WorkerStats) Add(o WorkerStats) {
	s.Entries += o.Entries
	s.Labels += o.Labels
	s.LabelLength += o.LabelLength
	s.EntriesWithMatch += o.EntriesWithMatch
	s.LabelsWithMatch += o.LabelsWithMatch
	s.Matches += o.Matches
	s.CooledDown += o.CooledDown
	s.AlreadyHinted += o.AlreadyHinted
	if len(o.ByType) > 0 && s.ByType == nil {
		s.ByType = make(map[codeindex.CodeType]int, len(o.ByType))
	}
	for t, n := range o.ByType {
		s.ByType[t] += n
	}
}

// AggregatorStats summarizes the match consumer
type AggregatorStats struct {
	Messages     int64 `json:"messages"`
	Matches      int64 `json:"matches"`
	HintsCreated int64 `json:"hints_created"`
	Associations int64 `json:"associations"`
	Deletes      int64 `json:"deletes"`
	DeletedRows  int64 `json:"deleted_rows"`
	Flushes      int64 `json:"flushes"`
	Commits      int64 `json:"commits"`
}

// TrackerStats summarizes the rescan consumer
type TrackerStats struct {
	Received   int64 `json:"received"`
	Touched    int64 `json:"touched"`
	Duplicates int64 `json:"duplicates"`
	Missing    int64 `json:"missing"`
}

// Report is what Run returns
type Report struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	DryRun     bool            `json:"dry_run"`
	IndexKeys  int             `json:"index_keys"`
	IndexNodes int             `json:"index_nodes"`
	Workers    []WorkerStats   `json:"workers"`
	Totals     WorkerStats     `json:"totals"`
	Aggregator AggregatorStats `json:"aggregator"`
	Tracker    TrackerStats    `json:"tracker"`
}

// State of a queue consumer
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateFlushing
	StateStopped
)

var stateNames = [...]string{"idle", "running", "draining", "flushing", "stopped"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText renders the state name
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// WorkerStatus is the live view of one search worker
type WorkerStatus struct {
	Worker  int   `json:"worker"`
	Domains int64 `json:"domains"`
	Labels  int64 `json:"labels"`
	Matches int64 `json:"matches"`
	Done    bool  `json:"done"`
}

// QueueStatus is the live view of one queue
type QueueStatus struct {
	Depth int   `json:"depth"`
	Puts  int64 `json:"puts"`
	Gets  int64 `json:"gets"`
}

// Status is a point in time snapshot of a run
type Status struct {
	RunID      string         `json:"run_id,omitempty"`
	Running    bool           `json:"running"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	Aggregator State          `json:"aggregator"`
	Tracker    State          `json:"tracker"`
	Workers    []WorkerStatus `json:"workers"`
	Matches    QueueStatus    `json:"match_queue"`
	Rescans    QueueStatus    `json:"rescan_queue"`
}
