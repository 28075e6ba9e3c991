package main

import (
	"testing"
	"time"

	"github.com/alexmarder/hloc/internal/platform/config"
	"github.com/alexmarder/hloc/internal/platform/queue"
	findmod "github.com/alexmarder/hloc/internal/services/find/module"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func flagUsage(t *testing.T, name string) string {
	t.Helper()
	for _, f := range runFlags() {
		if f.Names()[0] != name {
			continue
		}
		if d, ok := f.(cli.DocGenerationFlag); ok {
			return d.GetUsage()
		}
	}
	t.Fatalf("flag %s not found", name)
	return ""
}

func TestRunFlags_EveryOptionHasEnv(t *testing.T) {
	for _, f := range runFlags() {
		name := f.Names()[0]
		if name == "report-json" {
			continue
		}
		_, ok := runEnv[name]
		assert.True(t, ok, "flag %s has no env key", name)
	}
}

func TestRunFlags_HelpMatchesBehaviour(t *testing.T) {
	// a zero queue size falls back to the bounded default
	assert.Positive(t, queue.DefaultSize)
	assert.Equal(t, "queue capacity, 0 for the default capacity", flagUsage(t, "queue-size"))
	assert.NotContains(t, flagUsage(t, "queue-size"), "unbounded")

	// the aggregator counts single matches, not messages
	assert.Equal(t, "matches between flushes", flagUsage(t, "flush-every"))
}

func TestExportFlags_OverridesConfig(t *testing.T) {
	for _, key := range runEnv {
		t.Setenv(key, "")
	}
	t.Setenv("CORE_FIND_PAGE_SIZE", "77")

	var got findmod.Options
	app := &cli.App{
		Name:  "hloc-find",
		Flags: runFlags(),
		Action: func(c *cli.Context) error {
			if err := exportFlags(c); err != nil {
				return err
			}
			got = findmod.FromConfig(config.New())
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"hloc-find", "--workers", "6", "--cooldown", "2d", "--dry-run"}))

	assert.Equal(t, 6, got.Run.Workers)
	assert.Equal(t, 48*time.Hour, got.Run.Cooldown)
	assert.True(t, got.Run.DryRun)
	// unset flags leave the environment alone
	assert.Equal(t, 77, got.Run.PageSize)
}
