// Package module wires the location catalog into modkit
package module

import (
	"github.com/alexmarder/hloc/internal/modkit"
	phttp "github.com/alexmarder/hloc/internal/platform/net/http"
	"github.com/alexmarder/hloc/internal/services/locations/domain"
	"github.com/alexmarder/hloc/internal/services/locations/repo"
	"github.com/alexmarder/hloc/internal/services/locations/service"
)

// Ports exposed by the locations module
type Ports struct {
	Catalog domain.CatalogPort
	Import  domain.ImportPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the locations module; a catalog file replaces Postgres as the read source
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	svc := service.New(deps.PG, repo.NewPG(), deps.Log)
	m := &Module{deps: deps, ports: Ports{Catalog: svc, Import: svc}}
	if opts.File != "" {
		m.ports.Catalog = service.FileCatalog{Path: opts.File}
	}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "locations" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(phttp.Router) {}
