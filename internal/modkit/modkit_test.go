package modkit

import (
	"testing"

	phttp "github.com/alexmarder/hloc/internal/platform/net/http"
)

type stub struct {
	mounted bool
	ports   any
}

func (s *stub) MountRoutes(_ phttp.Router) { s.mounted = true }
func (s *stub) Ports() any                 { return s.ports }
func (s *stub) Name() string               { return "stub" }

var _ Module = (*stub)(nil)

func TestBuilder_TypeSignatureAndUse(t *testing.T) {
	t.Parallel()

	var b Builder = func(_ Deps, _ ...Option) Module {
		return &stub{ports: "ok"}
	}

	m := b(Deps{})
	if m == nil {
		t.Fatal("builder returned nil module")
	}
	m.MountRoutes(nil)
	if !m.(*stub).mounted {
		t.Fatal("expected MountRoutes to be called")
	}
	if p := m.Ports(); p != "ok" {
		t.Fatalf("unexpected Ports value: got=%v want=ok", p)
	}
}
