package domain

import (
	"context"
	"time"
)

// ShardPort pages through one worker's partition
type ShardPort interface {
	ListShard(ctx context.Context, in ShardInput) ([]Domain, error)
	CountPopulation(ctx context.Context, classes []Classification, ipVersion string) (int64, error)
}

// SearchedPort moves a label's last_searched forward
type SearchedPort interface {
	TouchSearched(ctx context.Context, labelID int64, at time.Time) error
}

// ImportPort loads reverse DNS records
type ImportPort interface {
	Import(ctx context.Context, recs []Record) (ImportStats, error)
}

// ImportStats counts imported domains per classification
type ImportStats struct {
	Domains int
	Skipped int
	ByClass map[Classification]int
}
