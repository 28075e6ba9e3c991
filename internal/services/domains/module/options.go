package module

import "github.com/alexmarder/hloc/internal/platform/config"

// Options holds configuration settings for the domains module
type Options struct {
	MaxPage int
	// AllowedIPs names an address allow list for imports
	AllowedIPs string
}

// FromConfig reads CORE_DOMAINS_* settings
func FromConfig(cfg config.Conf) Options {
	dc := cfg.Prefix("CORE_DOMAINS_")
	return Options{
		MaxPage:    dc.MayInt("MAX_PAGE", 10000),
		AllowedIPs: dc.MayString("ALLOWED_IPS", ""),
	}
}
