// Package http serves the find run status, health and metrics endpoints
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/alexmarder/hloc/internal/core/version"
	phttp "github.com/alexmarder/hloc/internal/platform/net/http"
	"github.com/alexmarder/hloc/internal/services/find/domain"
)

// Pinger is satisfied by store adapters that expose Ping
type Pinger interface {
	Ping(context.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	StartedAt time.Time
	Status    domain.StatusPort
	// Metrics is mounted on /metrics when set
	Metrics http.Handler
	PG      any
	CH      any
}

type handlers struct {
	deps Deps
}

// Register mounts the status routes
func Register(r phttp.Router, d Deps) {
	h := &handlers{deps: d}

	phttp.GetJSON(r, "/healthz", h.health)
	phttp.GetJSON(r, "/readyz", h.ready)
	phttp.GetJSON(r, "/version", h.version)
	phttp.GetJSON(r, "/v1/find/status", h.status)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail skipped unknown
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
}

// swagger:route GET /healthz Meta health
// @Summary Liveness
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse "ok"
// @Router /healthz [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(h.deps.StartedAt) / time.Second),
	}, nil
}

// swagger:route GET /readyz Meta ready
// @Summary Readiness of Postgres and ClickHouse
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse "ok"
// @Router /readyz [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	check := func(name string, c any) ReadyCheck {
		if c == nil {
			return ReadyCheck{Name: name, Status: "skipped"}
		}
		if p, ok := c.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
			}
			return ReadyCheck{Name: name, Status: "ok"}
		}
		return ReadyCheck{Name: name, Status: "unknown"}
	}

	checks := []ReadyCheck{check("pg", h.deps.PG), check("ch", h.deps.CH)}
	overall := "ok"
	for _, c := range checks {
		switch c.Status {
		case "fail":
			overall = "fail"
		case "unknown":
			if overall == "ok" {
				overall = "degraded"
			}
		}
	}
	return ReadyResponse{Status: overall, Checks: checks}, nil
}

// @Summary Build information
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo "ok"
// @Router /version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// swagger:route GET /v1/find/status Find findStatus
// @Summary Snapshot of the current run
// @Tags Find
// @Produce json
// @Success 200 {object} domain.Status "ok"
// @Router /v1/find/status [get]
func (h *handlers) status(_ *http.Request) (any, error) {
	if h.deps.Status == nil {
		return domain.Status{Workers: []domain.WorkerStatus{}}, nil
	}
	return h.deps.Status.Status(), nil
}
