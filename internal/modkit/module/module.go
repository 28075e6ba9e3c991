// Package module defines the minimal contract for a modkit module
package module

import (
	phttp "github.com/alexmarder/hloc/internal/platform/net/http"
)

// Module is the sibling contract of modkit.Module
// it lives apart so packages that only extract ports avoid importing modkit
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
