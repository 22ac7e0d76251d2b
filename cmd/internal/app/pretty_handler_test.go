package app

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPrettyHandlerPlainOutput(t *testing.T) {
	var sb strings.Builder
	h := newPrettyHandler(&sb, &slog.HandlerOptions{Level: slog.LevelDebug}, false)

	r := slog.NewRecord(time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC), slog.LevelInfo, "http.request", 0)
	r.AddAttrs(
		slog.String("method", "get"),
		slog.String("path", "/auth/sessions"),
		slog.Int("status", 200),
		slog.String("note", "two words"),
	)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	line := sb.String()
	for _, want := range []string{
		"lvl=[INFO]",
		"msg=http.request",
		"method=GET",
		"path=/auth/sessions",
		"status=200",
		`note="two words"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("output missing %q: %s", want, line)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Errorf("color disabled but output has ANSI codes: %q", line)
	}
}

func TestPrettyHandlerGroupsAndAttrs(t *testing.T) {
	var sb strings.Builder
	base := newPrettyHandler(&sb, nil, false)
	h := base.WithAttrs([]slog.Attr{slog.String("svc", "atrium")}).WithGroup("req")

	r := slog.NewRecord(time.Now(), slog.LevelWarn, "slow", 0)
	r.AddAttrs(slog.Int("duration_ms", 1200))
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	line := sb.String()
	if !strings.Contains(line, "svc=atrium") {
		t.Errorf("missing handler attr: %s", line)
	}
	if !strings.Contains(line, "req.duration_ms=1200") {
		t.Errorf("missing grouped attr: %s", line)
	}
	if !strings.Contains(line, "lvl=[WARN]") {
		t.Errorf("missing level tag: %s", line)
	}
}

func TestStripANSI(t *testing.T) {
	colored := ansiRed + "500" + ansiReset + " " + ansiDim + "12:00:00" + ansiReset
	if got := stripANSI(colored); got != "500 12:00:00" {
		t.Errorf("stripANSI = %q", got)
	}
}

func TestColorizeStatusCode(t *testing.T) {
	cases := []struct {
		status int
		prefix string
	}{
		{200, ansiGreen},
		{301, ansiCyan},
		{404, ansiYellow},
		{503, ansiRed},
	}
	for _, tc := range cases {
		got := colorizeStatusCode(tc.status, true)
		if !strings.HasPrefix(got, tc.prefix) {
			t.Errorf("colorizeStatusCode(%d) = %q, want prefix %q", tc.status, got, tc.prefix)
		}
		if plain := colorizeStatusCode(tc.status, false); strings.Contains(plain, "\x1b[") {
			t.Errorf("colorizeStatusCode(%d, false) = %q has ANSI", tc.status, plain)
		}
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	cases := map[string]string{
		"":        `""`,
		"plain":   "plain",
		"a b":     `"a b"`,
		`x="y"`:   `"x=\"y\""`,
		"tab\tok": `"tab\tok"`,
	}
	for in, want := range cases {
		if got := quoteIfNeeded(in); got != want {
			t.Errorf("quoteIfNeeded(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLevelTagPlain(t *testing.T) {
	cases := map[slog.Level]string{
		slog.LevelDebug: "[DEBUG]",
		slog.LevelInfo:  "[INFO]",
		slog.LevelWarn:  "[WARN]",
		slog.LevelError: "[ERROR]",
	}
	for lvl, want := range cases {
		if got := levelTag(lvl, false); got != want {
			t.Errorf("levelTag(%v) = %q, want %q", lvl, got, want)
		}
	}
}
