// Package module wires the domains service into modkit
package module

import (
	"fmt"

	"github.com/alexmarder/hloc/internal/modkit"
	phttp "github.com/alexmarder/hloc/internal/platform/net/http"
	"github.com/alexmarder/hloc/internal/services/domains/domain"
	"github.com/alexmarder/hloc/internal/services/domains/repo"
	"github.com/alexmarder/hloc/internal/services/domains/service"
)

// Ports exposed by the domains module
type Ports struct {
	Shard    domain.ShardPort
	Searched domain.SearchedPort
	Import   domain.ImportPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the domains module; an unreadable allow list panics
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)
	cfg := service.Config{MaxPage: opts.MaxPage}
	if opts.AllowedIPs != "" {
		allowed, err := service.LoadAllowList(opts.AllowedIPs)
		if err != nil {
			panic(fmt.Errorf("domains module: %w", err))
		}
		cfg.Allowed = allowed
	}
	svc := service.New(deps.PG, repo.NewPG(), deps.Log, cfg)
	return &Module{deps: deps, ports: Ports{Shard: svc, Searched: svc, Import: svc}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "domains" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(phttp.Router) {}
