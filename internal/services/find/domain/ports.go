package domain

import "context"

// RunnerPort runs one find pass over the domain population
type RunnerPort interface {
	Run(ctx context.Context) (Report, error)
}

// StatusPort exposes the live state of the current or last run
type StatusPort interface {
	Status() Status
}

// SummarySink stores run reports somewhere durable
type SummarySink interface {
	WriteSummary(ctx context.Context, r Report) error
}

// Progress receives domain counts while a run is in flight
type Progress interface {
	Start(total int64)
	Add(n int)
	Finish()
}
