package modkit

import (
	"net/http"

	phttp "github.com/alexmarder/hloc/internal/platform/net/http"
)

// Built is a plain struct with the fields modules care about
type Built struct {
	Name     string
	Prefix   string
	Mw       []func(http.Handler) http.Handler
	Ports    any
	Register func(phttp.Router)
}

// Build applies Option funcs and returns a plain struct
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	if c.register == nil {
		c.register = func(phttp.Router) {}
	}
	return Built{
		Name:     c.name,
		Prefix:   c.prefix,
		Mw:       append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:    c.ports,
		Register: c.register,
	}
}

// Mount attaches the module under its prefix with its middleware
func (b Built) Mount(r phttp.Router) {
	attach := func(sub phttp.Router) {
		if len(b.Mw) > 0 {
			sub.Use(b.Mw...)
		}
		b.Register(sub)
	}
	if b.Prefix == "" || b.Prefix == "/" {
		if len(b.Mw) == 0 {
			b.Register(r)
			return
		}
		r.Route("/", attach)
		return
	}
	r.Route(b.Prefix, attach)
}
