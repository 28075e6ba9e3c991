// Package swaggerkit provides helpers to mount Swagger UI and JSON spec
package swaggerkit

import (
	"net/http"

	phttp "github.com/alexmarder/hloc/internal/platform/net/http"
)

// Mount the Swagger UI under prefix and its JSON spec at prefix/doc.json if enabled
func Mount(r phttp.Router, prefix string, enabled bool, ms ...SpecMutator) {
	if !enabled {
		return
	}
	r.Get(prefix, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, prefix+"/", http.StatusPermanentRedirect)
	})
	r.Get(prefix+"/doc.json", serveDocJSON(ms...))
	phttp.MountSwagger(r, prefix, prefix+"/doc.json")
}
