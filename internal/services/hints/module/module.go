// Package module wires the hints service into modkit
package module

import (
	"net/http"
	"strconv"

	"github.com/alexmarder/hloc/internal/modkit"
	perr "github.com/alexmarder/hloc/internal/platform/errors"
	phttp "github.com/alexmarder/hloc/internal/platform/net/http"
	"github.com/alexmarder/hloc/internal/services/hints/domain"
	"github.com/alexmarder/hloc/internal/services/hints/repo"
	"github.com/alexmarder/hloc/internal/services/hints/service"

	"github.com/go-chi/chi/v5"
)

// Ports exposed by the hints module
type Ports struct {
	Sessions domain.SessionPort
	Query    domain.QueryPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
	built modkit.Built
}

// New constructs the hints module
func New(deps modkit.Deps) *Module {
	svc := service.New(deps.PG, repo.NewPG(), deps.Log)
	m := &Module{deps: deps, ports: Ports{Sessions: svc, Query: svc}}
	m.built = modkit.Build(
		modkit.WithName("hints"),
		modkit.WithPrefix("/v1/hints"),
		modkit.WithPorts(m.ports),
		modkit.WithRegister(m.register),
	)
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.built.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r phttp.Router) { m.built.Mount(r) }

func (m *Module) register(r phttp.Router) {
	phttp.GetJSON(r, "/labels/{id}", m.labelHints)
}

// swagger:route GET /v1/hints/labels/{id} Hints labelHints
// @Summary Location hints associated with a label
// @Tags Hints
// @Produce json
// @Param id path int true "label id"
// @Success 200 {array} domain.LabelHint "ok"
// @Router /v1/hints/labels/{id} [get]
func (m *Module) labelHints(req *http.Request) (any, error) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		return nil, perr.WithField(perr.InvalidArgf("label id %q is not a number", chi.URLParam(req, "id")), "id")
	}
	return m.ports.Query.ForLabel(req.Context(), id)
}
