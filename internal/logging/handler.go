// Package logging sets up the process-wide slog logger. Production runs
// use the JSON handler; local development gets a colorized pretty handler.
package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorBold   = "\033[1m"
)

// Setup installs the default slog logger. format is "json" or "pretty";
// anything else falls back to json. level accepts debug, info, warn, error.
func Setup(out io.Writer, format, level string) {
	minLevel := ParseLevel(level)

	var handler slog.Handler
	if strings.EqualFold(format, "pretty") {
		handler = NewPrettyHandler(out, minLevel)
	} else {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: minLevel})
	}
	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps a config string to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// PrettyHandler is a zero-dependency slog.Handler that writes colorized,
// human-readable log lines in the format:
//
//	HH:MM:SS LEVEL msg  key=value key=value
type PrettyHandler struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel slog.Level
}

func NewPrettyHandler(out io.Writer, minLevel slog.Level) *PrettyHandler {
	return &PrettyHandler{out: out, minLevel: minLevel}
}

func (h *PrettyHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.minLevel
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	buf.WriteString(colorGray)
	buf.WriteString(r.Time.Format(time.TimeOnly))
	buf.WriteString(colorReset)
	buf.WriteByte(' ')

	buf.WriteString(levelColor(r.Level))
	buf.WriteString(colorBold)
	fmt.Fprintf(&buf, "%-5s", r.Level.String())
	buf.WriteString(colorReset)
	buf.WriteByte(' ')

	buf.WriteString(colorGray)
	buf.WriteString(r.Message)
	buf.WriteString(colorReset)

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteByte(' ')
		buf.WriteString(colorCyan)
		buf.WriteString(a.Key)
		buf.WriteString(colorReset)
		buf.WriteByte('=')
		buf.WriteString(fmt.Sprintf("%v", a.Value.Any()))
		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

func (h *PrettyHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *PrettyHandler) WithGroup(_ string) slog.Handler      { return h }

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return colorRed
	case l >= slog.LevelWarn:
		return colorYellow
	case l >= slog.LevelInfo:
		return colorGreen
	default:
		return colorGray
	}
}
