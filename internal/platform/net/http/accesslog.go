package http

import (
	stdhttp "net/http"
	"time"

	"github.com/alexmarder/hloc/internal/platform/logger"

	mw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog logs method, path, status, elapsed and bytes for each request.
// Requests slower than slow log at warn; 0 disables that
func AccessLog(log logger.Logger, slow time.Duration) func(stdhttp.Handler) stdhttp.Handler {
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			ww := mw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			evt := log.Debug()
			if slow > 0 && elapsed >= slow {
				evt = log.Warn()
			}
			status := ww.Status()
			if status == 0 {
				status = stdhttp.StatusOK
			}
			evt.Int("status", status).
				Dur("elapsed", elapsed).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("bytes", ww.BytesWritten()).
				Str("request_id", mw.GetReqID(r.Context())).
				Msg("request done")
		})
	}
}
