package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPrettyHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelWarn))

	logger.Info("hidden")
	logger.Warn("shown", "reason", "test")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "reason") {
		t.Errorf("warn line missing, got %q", out)
	}
}
