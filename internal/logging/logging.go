// Package logging builds the structured logger.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/riconcilia/riconcilia/internal/config"
)

// New creates a logger writing to w at the configured level and format.
// Commands pass stderr so reports on stdout stay clean.
func New(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
