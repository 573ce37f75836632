// Command api runs the HTTP API process: the web UI shell, the feed and
// item endpoints, health checks, and the Prometheus metrics endpoint. It
// owns schema migration; the worker process waits for it.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feedlode/internal/feedparser"
	"feedlode/internal/httpapi"
	"feedlode/internal/httpapi/feed"
	"feedlode/internal/httpapi/item"
	"feedlode/internal/httpapi/middleware"
	"feedlode/internal/httpapi/requestid"
	"feedlode/internal/httpapi/webui"
	"feedlode/internal/imagefetch"
	"feedlode/internal/infra/db"
	"feedlode/internal/infra/postgres"
	"feedlode/internal/observability/logging"
	"feedlode/internal/processor"
	"feedlode/pkg/config"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	handler := setupServer(logger, database)
	runServer(logger, handler)
}

// initDatabase opens the connection pool and applies the schema migration.
func initDatabase(logger *slog.Logger) *sql.DB {
	database, err := db.Open()
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupServer wires the repositories, processor, routes, and middleware
// chain into the root handler.
func setupServer(logger *slog.Logger, database *sql.DB) http.Handler {
	feedStore := postgres.NewFeedRepo(database)
	itemStore := postgres.NewItemRepo(database)

	fetchTimeout := config.GetEnvDuration("FEED_FETCH_TIMEOUT", 30*time.Second)
	imageTimeout := config.GetEnvDuration("IMAGE_FETCH_TIMEOUT", 15*time.Second)

	parser := feedparser.New(&http.Client{Timeout: fetchTimeout})
	imageFetcher := imagefetch.New(&http.Client{Timeout: imageTimeout})

	proc := processor.New(parser, imageFetcher, feedStore, itemStore)
	proc.FetchTimeout = fetchTimeout

	mux := http.NewServeMux()
	webui.Register(mux)
	feed.Register(mux, feedStore, proc)
	item.Register(mux, itemStore)
	httpapi.HealthHandler{DB: database, Version: getVersion()}.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return httpapi.Chain(mux,
		requestid.Middleware,
		httpapi.Logging(logger),
		httpapi.Recover(logger),
		httpapi.Metrics(),
		middleware.CORS(middleware.LoadCORSConfig()),
		httpapi.LimitRequestBody(maxRequestBodyBytes),
	)
}

// runServer starts the HTTP server and blocks until SIGINT/SIGTERM, then
// shuts down gracefully with a 10-second drain deadline.
func runServer(logger *slog.Logger, handler http.Handler) {
	port := config.GetEnvInt("PORT", 8080)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("api server starting", slog.Int("port", port), slog.String("version", getVersion()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.Error("api server failed", slog.Any("error", err))
		os.Exit(1)
	case sig := <-stop:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("api server stopped")
}

func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}
