// Package log configures the process-wide slog default and hands out
// per-module child loggers.
package log

import (
	"log/slog"
	"os"
)

// Setup installs a text handler on stderr at the given level. Unrecognized
// levels fall back to info.
func Setup(logLevel string) {
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// WithModule returns a child of the default logger tagged with the module
// name, so every line carries its origin.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
