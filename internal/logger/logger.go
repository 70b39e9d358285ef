// Package logger builds the slog logger for a given environment name.
package logger

import (
	"log/slog"
	"os"
)

const (
	EnvLocal = "local"
	EnvDev   = "development"
	EnvProd  = "production"
)

// Setup returns a logger matching the environment: human-readable text
// locally, JSON everywhere else, and info level in production.
func Setup(env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}

	var h slog.Handler
	switch env {
	case EnvDev:
		h = slog.NewJSONHandler(os.Stdout, opts)
	case EnvProd:
		opts.Level = slog.LevelInfo
		h = slog.NewJSONHandler(os.Stdout, opts)
	default:
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}
