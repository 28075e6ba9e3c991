package pg

import (
	"context"
	"strings"

	"github.com/alexmarder/hloc/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one statement sent to Postgres
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives query events from the store adapter
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// maxLoggedArgs bounds how many bind args are logged; hint flushes bind thousands
const maxLoggedArgs = 16

// Tracer logs every statement regardless of the root level, so enabling
// LogSQL is enough to see queries
func Tracer(root logger.Logger) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return &zlTracer{log: ll}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Debug()
	if ev.Slow {
		evt = z.log.Warn()
	}
	if ev.Err != nil {
		evt = z.log.Error()
	}

	args := ev.Args
	n := 0
	if a, ok := args.([]any); ok {
		n = len(a)
		if n > maxLoggedArgs {
			args = a[:maxLoggedArgs]
		}
	}

	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Interface("args", args).
		Int("nargs", n).
		Err(ev.Err).
		Msg("pg query")
}

// compact folds whitespace runs into one space
func compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case '\n', '\t', '\r', ' ':
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
