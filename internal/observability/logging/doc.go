// Package logging configures structured logging for the feed poller.
//
// Both the API and worker binaries call NewLogger at startup and install the
// result as the slog default; packages below main log through slog directly.
// WithRequestID annotates a logger with the request ID carried by a context;
// the HTTP middleware reads the ID from the context directly.
//
// Example:
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//	logger.Info("api server starting", slog.Int("port", port))
package logging
