package module

import (
	"github.com/alexmarder/hloc/internal/core/blacklist"
	"github.com/alexmarder/hloc/internal/platform/config"
	"github.com/alexmarder/hloc/internal/services/find/domain"
)

// Options are the run options plus the module's own knobs
type Options struct {
	Run        domain.Options
	StatusAddr string
	Progress   bool
	Profiler   bool
	Docs       bool
}

// FromConfig reads CORE_FIND_* settings; unset keys keep domain.DefaultOptions
func FromConfig(cfg config.Conf) Options {
	fc := cfg.Prefix("CORE_FIND_")
	def := domain.DefaultOptions()
	return Options{
		Run: domain.Options{
			Workers:          fc.MayInt("WORKERS", def.Workers),
			Amount:           fc.MayInt("AMOUNT", 0),
			ExcludeSLD:       fc.MayBool("EXCLUDE_SLD", false),
			PageSize:         fc.MayInt("PAGE_SIZE", def.PageSize),
			IncludeIPEncoded: fc.MayBool("INCLUDE_IP_ENCODED", false),
			IPVersion:        fc.MayString("IP_VERSION", ""),
			Cooldown:         fc.MayDuration("COOLDOWN", def.Cooldown),
			Debug:            fc.MayBool("DEBUG", false),
			DebugCooldown:    fc.MayDuration("DEBUG_COOLDOWN", def.DebugCooldown),
			FlushEvery:       fc.MayInt("FLUSH_EVERY", def.FlushEvery),
			CommitEvery:      fc.MayInt("COMMIT_EVERY", def.CommitEvery),
			QueueSize:        fc.MayInt("QUEUE_SIZE", 0),
			PollInterval:     fc.MayDuration("POLL_INTERVAL", def.PollInterval),
			DryRun:           fc.MayBool("DRY_RUN", false),
			Blacklists: blacklist.Paths{
				Code:       fc.MayString("CODE_BLACKLIST", ""),
				Word:       fc.MayString("WORD_BLACKLIST", ""),
				Context:    fc.MayString("CONTEXT_BLACKLIST", ""),
				NoDefaults: fc.MayBool("NO_DEFAULT_BLACKLISTS", false),
			},
		},
		StatusAddr: fc.MayString("STATUS_ADDR", ""),
		Progress:   fc.MayBool("PROGRESS", false),
		Profiler:   fc.MayBool("PPROF", false),
		Docs:       fc.MayBool("DOCS", false),
	}
}
