// Package logging builds the structured logger shared by the CLI and the
// agent server.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/lmittmann/tint"
)

// ParseLevel converts a textual log level into a slog level. Unknown values
// map to info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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

// New returns a logr.Logger backed by a colorized tint handler. A nil
// writer logs to stderr. Color is disabled unless w is stderr.
func New(w io.Writer, level string) logr.Logger {
	if w == nil {
		w = os.Stderr
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.Kitchen,
		NoColor:    w != os.Stderr,
	})

	return logr.FromSlogHandler(handler)
}

// Slog exposes the handler behind a logger created by New, for libraries
// that take a *slog.Logger.
func Slog(log logr.Logger) *slog.Logger {
	return slog.New(logr.ToSlogHandler(log))
}
