package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexmarder/hloc/internal/platform/logger"
	kit "github.com/alexmarder/hloc/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	find := New().Prefix("CORE_").Prefix("FIND_")
	if got := find.key("WORKERS"); got != "CORE_FIND_WORKERS" {
		t.Fatalf("key() = %q", got)
	}
}

func TestMust(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  hloc ")
	t.Setenv("APP_N", " 8 ")
	t.Setenv("APP_BAD", "x")
	t.Setenv("APP_D", "2s")

	if got := c.MustString("NAME"); got != "hloc" {
		t.Fatalf("MustString = %q", got)
	}
	if got := c.MustInt("N"); got != 8 {
		t.Fatalf("MustInt = %d", got)
	}
	if got := c.MustDuration("D"); got != 2*time.Second {
		t.Fatalf("MustDuration = %v", got)
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
	kit.MustPanic(t, func() { _ = c.MustDuration("BAD") })
}

func TestMay_DefaultsAndWarnings(t *testing.T) {
	var buf bytes.Buffer
	c := New().WithLogger(logger.New(logger.Options{Format: "json", Writer: &buf})).Prefix("M_")

	t.Setenv("M_INT", "12")
	t.Setenv("M_INT_BAD", "twelve")
	t.Setenv("M_BOOL", "true")
	t.Setenv("M_BOOL_BAD", "sure")
	t.Setenv("M_DUR", "90m")
	t.Setenv("M_DAYS", "7d")
	t.Setenv("M_DUR_BAD", "soon")
	t.Setenv("M_CSV", " a, ,b ")
	t.Setenv("M_CSV_EMPTY", " , ")

	if c.MayInt("INT", 1) != 12 || c.MayInt("INT_BAD", 1) != 1 || c.MayInt("NOPE", 3) != 3 {
		t.Fatalf("MayInt mismatch")
	}
	if !c.MayBool("BOOL", false) || c.MayBool("BOOL_BAD", false) {
		t.Fatalf("MayBool mismatch")
	}
	if c.MayDuration("DUR", 0) != 90*time.Minute {
		t.Fatalf("MayDuration mismatch")
	}
	if c.MayDuration("DAYS", 0) != 7*24*time.Hour {
		t.Fatalf("MayDuration days mismatch")
	}
	if c.MayDuration("DUR_BAD", time.Hour) != time.Hour {
		t.Fatalf("MayDuration fallback mismatch")
	}
	if got := c.MayCSV("CSV", nil); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("MayCSV = %v", got)
	}
	if got := c.MayCSV("CSV_EMPTY", []string{"d"}); len(got) != 1 || got[0] != "d" {
		t.Fatalf("MayCSV empty = %v", got)
	}
	if c.MayString("NOPE", "def") != "def" {
		t.Fatalf("MayString default mismatch")
	}

	kit.MustContain(t, buf.String(), "invalid int; using default")
	kit.MustContain(t, buf.String(), "invalid bool; using default")
	kit.MustContain(t, buf.String(), "invalid duration; using default")
}

func TestLoad_DotenvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "test.env")
	if err := os.WriteFile(f, []byte("DOTENV_A=from-file\nDOTENV_B=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOTENV_A", "from-env")
	t.Setenv("DOTENV_B", "")
	_ = os.Unsetenv("DOTENV_B")
	t.Cleanup(func() { _ = os.Unsetenv("DOTENV_B") })

	c := Load(logger.Nop(), f, filepath.Join(dir, "missing.env"))
	if got := c.MayString("DOTENV_A", ""); got != "from-env" {
		t.Fatalf("DOTENV_A = %q, want from-env", got)
	}
	if got := c.MayString("DOTENV_B", ""); got != "from-file" {
		t.Fatalf("DOTENV_B = %q, want from-file", got)
	}
}
