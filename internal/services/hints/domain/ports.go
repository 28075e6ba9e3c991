package domain

import "context"

// Writer is the write surface used inside one transaction
type Writer interface {
	// UpsertHints returns the id of every key, creating the missing ones
	UpsertHints(ctx context.Context, keys []NaturalKey) (map[NaturalKey]int64, error)
	// InsertAssociations ignores rows that already exist and returns how many were new
	InsertAssociations(ctx context.Context, as []Association) (int64, error)
	// DeleteAssociations drops every association of a label and returns how many went
	DeleteAssociations(ctx context.Context, labelID int64) (int64, error)
}

// Session is a Writer whose commits the caller schedules
type Session interface {
	Writer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SessionPort opens write sessions
type SessionPort interface {
	Begin(ctx context.Context) (Session, error)
}

// QueryPort reads hints
type QueryPort interface {
	ForLabel(ctx context.Context, labelID int64) ([]LabelHint, error)
}
