package module

import "github.com/alexmarder/hloc/internal/platform/config"

// Options holds configuration settings for the locations module
type Options struct {
	File string
}

// FromConfig reads CORE_LOCATIONS_* settings
func FromConfig(cfg config.Conf) Options {
	lc := cfg.Prefix("CORE_LOCATIONS_")
	return Options{
		File: lc.MayString("FILE", ""),
	}
}
