// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"

	"portfolio/internal/config"
)

// New returns a structured logger suited to the environment mode: JSON at
// info level in production, text at debug level in development, and a
// discarding logger under test. The logger is also installed as the slog
// default.
func New(env string, w io.Writer) *slog.Logger {
	var handler slog.Handler
	switch env {
	case config.EnvProduction:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case config.EnvTest:
		handler = slog.DiscardHandler
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
