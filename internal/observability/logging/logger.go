package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"feedlode/internal/httpapi/requestid"
)

// NewLogger returns the production logger: JSON on stdout, level from the
// LOG_LEVEL environment variable (default info).
func NewLogger() *slog.Logger {
	return NewLoggerTo(os.Stdout)
}

// NewLoggerTo builds the same logger writing to w. Tests pass a buffer to
// assert on emitted records.
func NewLoggerTo(w io.Writer) *slog.Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		// Source locations are attached only when the configured level is
		// warn or error; at info or debug no record carries one.
		AddSource: level >= slog.LevelWarn,
	}))
}

// ParseLevel maps a LOG_LEVEL string to a slog.Level. Unknown or empty
// values mean info.
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

// WithRequestID returns logger annotated with the request ID carried by ctx,
// or logger unchanged when the context has none, so every line logged
// through the result shares a correlation key.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := requestid.FromContext(ctx); id != "" {
		return logger.With(slog.String("request_id", id))
	}
	return logger
}
