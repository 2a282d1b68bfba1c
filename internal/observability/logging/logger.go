// Package logging builds the slog loggers both binaries share. Events
// are snake_case strings ("pipeline_started", "term_persist_failed");
// everything variable goes in attrs, never in the message.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// NewJSONLogger returns the process-wide logger with the service name
// attached to every record.
func NewJSONLogger(service, level string) *slog.Logger {
	return NewJSONLoggerTo(os.Stdout, service, level)
}

// NewJSONLoggerTo writes to the given sink; tests pass a buffer.
func NewJSONLoggerTo(w io.Writer, service, level string) *slog.Logger {
	lvl := ParseLevel(level)
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
		// Call sites are only worth the lookup cost when debugging.
		AddSource:   lvl <= slog.LevelDebug,
		ReplaceAttr: normalizeAttr,
	})
	return slog.New(handler).With("service", service)
}

// WithComponent scopes a logger to one subsystem so records from the
// pipeline, the repositories and the transports can be told apart
// without parsing event names.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", component)
}

// ParseLevel maps the LOG_LEVEL setting onto a slog level, defaulting
// to info for anything unrecognised.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// normalizeAttr pins timestamps to UTC RFC 3339 so records from both
// binaries collate regardless of host timezone.
func normalizeAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return a
}
