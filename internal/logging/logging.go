// Package logging builds the slog loggers used across flux.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	// FormatText writes key=value lines.
	FormatText Format = "text"

	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// Config configures a logger.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string

	// Format is text or json. Defaults to text.
	Format Format

	// Output is where records are written. Defaults to os.Stderr.
	Output io.Writer

	// AddSource adds the caller position to each record.
	AddSource bool
}

// ParseLevel parses a level name. Unknown names fall back to info.
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

// ValidLevel reports whether s names a known level.
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// New creates a logger from cfg. The returned LevelVar changes the level of
// the logger and every logger derived from it.
func New(cfg Config) (*slog.Logger, *slog.LevelVar, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.Level))
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var h slog.Handler
	switch cfg.Format {
	case "", FormatText:
		h = slog.NewTextHandler(out, opts)
	case FormatJSON:
		h = slog.NewJSONHandler(out, opts)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return slog.New(h), level, nil
}

// Component returns l tagged with a component name.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", name)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenFile opens path for appending log records.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
