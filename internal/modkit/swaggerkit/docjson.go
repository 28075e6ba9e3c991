package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/alexmarder/hloc/internal/core/version"
	docs "github.com/alexmarder/hloc/internal/services/find/docs"
)

// SpecMutator lets callers tweak the parsed swagger spec before it is served
type SpecMutator func(map[string]any)

// docReader is a seam so tests can inject invalid JSON without patching swagger
var docReader = func() string { return docs.SwaggerInfo.ReadDoc() }

// WithBuildVersion stamps info.version with the running binary's version
func WithBuildVersion() SpecMutator {
	return func(spec map[string]any) {
		if info, ok := spec["info"].(map[string]any); ok {
			info["version"] = version.Info().Version
		}
	}
}

func serveDocJSON(ms ...SpecMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}

		ensureServers(spec, "/")
		ensureEnvelopeDefinition(spec)
		wrapSuccess(spec)
		addDefaultError(spec)
		addDefaultBadRequest(spec)

		for _, m := range ms {
			if m != nil {
				m(spec)
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// ensureServers makes sure the spec is OAS3 and has a servers array
// swagger http ui can't render 3.1 yet, so downconvert
func ensureServers(spec map[string]any, url string) {
	if _, hasSwagger := spec["swagger"]; hasSwagger {
		spec["openapi"] = "3.0.3"
		delete(spec, "swagger")
	}
	if v, ok := spec["openapi"].(string); !ok || strings.HasPrefix(v, "3.1") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": url}}
	}
}

func schemas(spec map[string]any) map[string]any {
	comps, ok := spec["components"].(map[string]any)
	if !ok {
		comps = map[string]any{}
		spec["components"] = comps
	}
	s, ok := comps["schemas"].(map[string]any)
	if !ok {
		s = map[string]any{}
		comps["schemas"] = s
	}
	return s
}

// ensureEnvelopeDefinition adds the phttp.Envelope model if missing
func ensureEnvelopeDefinition(spec map[string]any) {
	s := schemas(spec)
	if _, ok := s["Envelope"]; ok {
		return
	}
	s["Envelope"] = map[string]any{
		"type":        "object",
		"description": "Standard response envelope",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "string"},
			"error":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
			"data":        map[string]any{},
		},
		"required": []any{"status_code", "status"},
	}
}

// each calls fn with the responses object of every operation
func each(spec map[string]any, fn func(responses map[string]any)) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			responses, ok := op["responses"].(map[string]any)
			if !ok {
				responses = map[string]any{}
				op["responses"] = responses
			}
			fn(responses)
		}
	}
}

// wrapSuccess moves each 200 schema under the envelope's data field,
// matching what phttp.GetJSON writes
func wrapSuccess(spec map[string]any) {
	each(spec, func(responses map[string]any) {
		r200, _ := responses["200"].(map[string]any)
		content, _ := r200["content"].(map[string]any)
		media, _ := content["application/json"].(map[string]any)
		inner, has := media["schema"]
		if !has {
			return
		}
		media["schema"] = map[string]any{
			"allOf": []any{
				map[string]any{"$ref": "#/components/schemas/Envelope"},
				map[string]any{
					"type":       "object",
					"properties": map[string]any{"data": inner},
				},
			},
		}
	})
}

func errorResponse(desc string, example map[string]any) map[string]any {
	return map[string]any{
		"description": desc,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema":  map[string]any{"$ref": "#/components/schemas/Envelope"},
				"example": example,
			},
		},
	}
}

// addDefaultError injects a 500 response where absent
func addDefaultError(spec map[string]any) {
	resp := errorResponse("Internal Server Error", map[string]any{
		"status_code": 500,
		"status":      "Internal Server Error",
		"code":        "db",
		"error":       "connection refused",
		"request_id":  "hloc/abc-000001",
	})
	each(spec, func(responses map[string]any) {
		if _, exists := responses["500"]; !exists {
			responses["500"] = resp
		}
	})
}

// addDefaultBadRequest injects a 400 response where absent
func addDefaultBadRequest(spec map[string]any) {
	resp := errorResponse("Bad Request", map[string]any{
		"status_code": 400,
		"status":      "Bad Request",
		"code":        "invalid_argument",
		"error":       `label id "x" is not a number`,
		"request_id":  "hloc/abc-000001",
	})
	each(spec, func(responses map[string]any) {
		if _, exists := responses["400"]; !exists {
			responses["400"] = resp
		}
	})
}
