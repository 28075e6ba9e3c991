// Package module wires the find pipeline into modkit
package module

import (
	"time"

	"github.com/alexmarder/hloc/internal/modkit"
	"github.com/alexmarder/hloc/internal/modkit/swaggerkit"
	phttp "github.com/alexmarder/hloc/internal/platform/net/http"
	"github.com/alexmarder/hloc/internal/services/find/domain"
	findhttp "github.com/alexmarder/hloc/internal/services/find/http"
	"github.com/alexmarder/hloc/internal/services/find/repo"
	"github.com/alexmarder/hloc/internal/services/find/service"
)

// Ports exposed by the find module
type Ports struct {
	Runner domain.RunnerPort
	Status domain.StatusPort
}

// Module implements modkit.Module
type Module struct {
	deps      modkit.Deps
	opts      Options
	ports     Ports
	svc       *service.Service
	summaries *repo.Summaries
	startedAt time.Time
}

// New constructs the find module. The collaborators come in through
// modkit.WithPorts(service.Ports); Summaries is filled from deps.CH when unset.
// overrides replaces the configured run options when non nil
func New(deps modkit.Deps, overrides *domain.Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("find")}, opts...)...)

	ports, ok := b.Ports.(service.Ports)
	if !ok {
		panic("find module: expected WithPorts(find/service.Ports)")
	}
	if ports.Catalog == nil || ports.Shard == nil {
		panic("find module: Ports missing Catalog or Shard")
	}

	o := FromConfig(deps.Cfg)
	if overrides != nil {
		o.Run = *overrides
	}

	m := &Module{deps: deps, opts: o, startedAt: time.Now()}
	if ports.Summaries == nil && deps.HasCH() {
		m.summaries = repo.NewCH(deps.CH)
		ports.Summaries = m.summaries
	}
	m.svc = service.New(o.Run, ports, deps.Log)
	m.ports = Ports{Runner: m.svc, Status: m.svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "find" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// Service exposes the runner for progress and metrics wiring
func (m *Module) Service() *service.Service { return m.svc }

// Summaries is the ClickHouse sink, nil without ClickHouse
func (m *Module) Summaries() *repo.Summaries { return m.summaries }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r phttp.Router) {
	findhttp.Register(r, findhttp.Deps{
		StartedAt: m.startedAt,
		Status:    m.svc,
		Metrics:   m.svc.Metrics.Handler(),
		PG:        m.deps.PG,
		CH:        m.deps.CH,
	})
	phttp.MountProfiler(r, "/debug", m.opts.Profiler)
	swaggerkit.Mount(r, "/docs", m.opts.Docs, swaggerkit.WithBuildVersion())
}
