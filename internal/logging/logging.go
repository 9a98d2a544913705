// Package logging provides structured logging for veriplan components.
//
// Output goes to stderr so reports on stdout stay machine-parseable.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config configures the logger. The zero value logs Info and above as
// text to stderr.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string

	// JSON switches output to JSON objects, one per line.
	JSON bool

	// Quiet discards all log output.
	Quiet bool

	// Service is attached to every entry as the "service" attribute.
	Service string
}

// New builds a logger from the config.
func New(cfg Config) *slog.Logger {
	var out io.Writer = os.Stderr
	if cfg.Quiet {
		out = io.Discard
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return logger
}

// Default returns a text logger at Info level.
func Default() *slog.Logger {
	return New(Config{})
}

func parseLevel(level string) slog.Level {
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
