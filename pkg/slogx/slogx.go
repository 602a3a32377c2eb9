package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Component string // e.g. "shelf-sdk"
	Level     string // e.g. "debug", "info", "warn", "error"
	Format    string // e.g. "json", "text"
	Output    io.Writer
}

// New returns a configured slog.Logger instance. An SDK embedded in a host
// program should usually be handed the host's logger instead; this factory
// exists for standalone tools and tests.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Component != "" {
		logger = logger.With("component", cfg.Component)
	}
	return logger
}

// Nop returns a logger that discards everything. Handy default for
// components whose caller did not supply a logger.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// parseLevel maps a string to slog.Level.
func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
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
