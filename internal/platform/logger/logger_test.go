package logger

import (
	"bytes"
	"strings"
	"testing"

	kit "github.com/alexmarder/hloc/internal/platform/testkit"
)

func TestParseLevel_AllBranches(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"warning", "warn"},
		{"error", "error"},
		{"fatal", "fatal"},
		{"panic", "panic"},
		{"off", "disabled"},
		{"", "info"},
		{"   nonsense   ", "info"},
	}
	for _, c := range cases {
		lvl := parseLevel(c.in)
		if strings.ToLower(lvl.String()) != c.want {
			t.Fatalf("parseLevel(%q) = %q, want %q", c.in, lvl, c.want)
		}
	}
}

func TestNew_Named_StaticFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{
		Level:        "debug",
		Format:       "console",
		Service:      "svc-a",
		Component:    "root",
		Writer:       &buf,
		WithCaller:   true,
		StaticFields: map[string]string{"build": "test"},
	})

	l.Info().Str("k", "v").Msg("root-msg")
	n := Named(l, "aggregator")
	n.Info().Msg("named-msg")

	out := buf.String()
	kit.MustContain(t, out, "root-msg")
	kit.MustContain(t, out, "named-msg")
	kit.MustContain(t, out, "aggregator")
	kit.MustContain(t, out, "service=")
	kit.MustContain(t, out, "svc-a")
	kit.MustContain(t, out, "build=")
}

func TestNew_JSONAndSampling(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: "json", Writer: &buf, SampleEvery: 2})
	for i := 0; i < 4; i++ {
		l.Info().Int("i", i).Msg("sampled")
	}
	if got := strings.Count(buf.String(), `"message":"sampled"`); got != 2 {
		t.Fatalf("expected 2 sampled lines, got %d:\n%s", got, buf.String())
	}
}

func TestNamed_EmptyComponentReturnsSame(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Format: "json", Writer: &buf})
	n := Named(l, "")
	n.Info().Msg("x")
	if strings.Contains(buf.String(), `"component"`) {
		t.Fatalf("unexpected component field: %s", buf.String())
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_SERVICE", "svc-b")
	t.Setenv("LOG_CALLER", "true")
	t.Setenv("LOG_SAMPLE_EVERY", "5")

	opt := FromEnv()
	if opt.Level != "warn" || opt.Format != "json" || opt.Service != "svc-b" {
		t.Fatalf("FromEnv mismatch: %+v", opt)
	}
	if !opt.WithCaller || opt.SampleEvery != 5 {
		t.Fatalf("FromEnv caller/sample mismatch: %+v", opt)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error().Msg("dropped")
}
