package main

import (
	"fmt"
	"os"

	"github.com/alexmarder/hloc/internal/services/find/domain"
	"github.com/urfave/cli/v2"
)

// every run flag maps onto one CORE_FIND_ key so FromConfig stays the single parser
var runEnv = map[string]string{
	"workers":               "CORE_FIND_WORKERS",
	"amount":                "CORE_FIND_AMOUNT",
	"exclude-sld":           "CORE_FIND_EXCLUDE_SLD",
	"page-size":             "CORE_FIND_PAGE_SIZE",
	"include-ip-encoded":    "CORE_FIND_INCLUDE_IP_ENCODED",
	"ip-version":            "CORE_FIND_IP_VERSION",
	"cooldown":              "CORE_FIND_COOLDOWN",
	"debug":                 "CORE_FIND_DEBUG",
	"debug-cooldown":        "CORE_FIND_DEBUG_COOLDOWN",
	"flush-every":           "CORE_FIND_FLUSH_EVERY",
	"commit-every":          "CORE_FIND_COMMIT_EVERY",
	"queue-size":            "CORE_FIND_QUEUE_SIZE",
	"poll-interval":         "CORE_FIND_POLL_INTERVAL",
	"dry-run":               "CORE_FIND_DRY_RUN",
	"code-blacklist":        "CORE_FIND_CODE_BLACKLIST",
	"word-blacklist":        "CORE_FIND_WORD_BLACKLIST",
	"context-blacklist":     "CORE_FIND_CONTEXT_BLACKLIST",
	"no-default-blacklists": "CORE_FIND_NO_DEFAULT_BLACKLISTS",
	"status-addr":           "CORE_FIND_STATUS_ADDR",
	"progress":              "CORE_FIND_PROGRESS",
	"pprof":                 "CORE_FIND_PPROF",
	"docs":                  "CORE_FIND_DOCS",
	"locations-file":        "CORE_LOCATIONS_FILE",
}

func runFlags() []cli.Flag {
	def := domain.DefaultOptions()
	env := func(name string) []string { return []string{runEnv[name]} }
	return []cli.Flag{
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Value: def.Workers, EnvVars: env("workers"), Usage: "parallel search workers"},
		&cli.IntFlag{Name: "amount", Aliases: []string{"a"}, EnvVars: env("amount"), Usage: "domains per worker, 0 for all"},
		&cli.BoolFlag{Name: "exclude-sld", EnvVars: env("exclude-sld"), Usage: "skip the second level label"},
		&cli.IntFlag{Name: "page-size", Value: def.PageSize, EnvVars: env("page-size"), Usage: "domains fetched per shard page"},
		&cli.BoolFlag{Name: "include-ip-encoded", EnvVars: env("include-ip-encoded"), Usage: "search ip encoded domains too"},
		&cli.StringFlag{Name: "ip-version", EnvVars: env("ip-version"), Usage: "ipv4 or ipv6 only"},
		&cli.StringFlag{Name: "cooldown", Value: "7d", EnvVars: env("cooldown"), Usage: "skip labels searched within this window"},
		&cli.BoolFlag{Name: "debug", EnvVars: env("debug"), Usage: "use the debug cooldown"},
		&cli.StringFlag{Name: "debug-cooldown", Value: def.DebugCooldown.String(), EnvVars: env("debug-cooldown")},
		&cli.IntFlag{Name: "flush-every", Value: def.FlushEvery, EnvVars: env("flush-every"), Usage: "matches between flushes"},
		&cli.IntFlag{Name: "commit-every", Value: def.CommitEvery, EnvVars: env("commit-every"), Usage: "flushes between commits"},
		&cli.IntFlag{Name: "queue-size", EnvVars: env("queue-size"), Usage: "queue capacity, 0 for the default capacity"},
		&cli.StringFlag{Name: "poll-interval", Value: def.PollInterval.String(), EnvVars: env("poll-interval")},
		&cli.BoolFlag{Name: "dry-run", EnvVars: env("dry-run"), Usage: "match and report without writing"},
		&cli.StringFlag{Name: "code-blacklist", EnvVars: env("code-blacklist"), TakesFile: true},
		&cli.StringFlag{Name: "word-blacklist", EnvVars: env("word-blacklist"), TakesFile: true},
		&cli.StringFlag{Name: "context-blacklist", EnvVars: env("context-blacklist"), TakesFile: true},
		&cli.BoolFlag{Name: "no-default-blacklists", EnvVars: env("no-default-blacklists"), Usage: "unset lists stay empty"},
		&cli.StringFlag{Name: "locations-file", EnvVars: env("locations-file"), TakesFile: true, Usage: "read the catalog from a JSON file instead of Postgres"},
		&cli.StringFlag{Name: "status-addr", EnvVars: env("status-addr"), Usage: "serve status and metrics on this address"},
		&cli.BoolFlag{Name: "progress", EnvVars: env("progress"), Usage: "draw a progress bar on stderr"},
		&cli.BoolFlag{Name: "pprof", EnvVars: env("pprof"), Usage: "mount /debug/pprof on the status server"},
		&cli.BoolFlag{Name: "docs", EnvVars: env("docs"), Usage: "mount the Swagger UI at /docs on the status server"},
		&cli.BoolFlag{Name: "report-json", Usage: "print the run report as JSON on stdout"},
	}
}

// exportFlags copies explicitly set flags into the environment read by the modules
func exportFlags(c *cli.Context) error {
	for name, key := range runEnv {
		if !c.IsSet(name) {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(c.Value(name))); err != nil {
			return err
		}
	}
	return nil
}
