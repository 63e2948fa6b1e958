// Package logging builds the process logger: JSON lines in production,
// key=value text during development.
package logging

import (
	"io"
	"log"
	"log/slog"
	"strings"
)

// ParseLevel maps FD_LOG_LEVEL values to slog levels. Unknown values fall
// back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New returns a logger writing to w at the given level.
func New(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Setup installs l as the slog default and routes the standard log package
// through it, so log.Printf from dependencies ends up in the same stream.
func Setup(l *slog.Logger) {
	slog.SetDefault(l)
	log.SetFlags(0)
}

// Nop discards everything; handy in tests.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
