// Command worker runs the scheduler process: the long-running adaptive
// polling loop that selects due feeds and dispatches them in bounded
// concurrent batches. Exactly one worker should run per database.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedlode/internal/feedparser"
	"feedlode/internal/health"
	"feedlode/internal/imagefetch"
	"feedlode/internal/infra/db"
	"feedlode/internal/infra/postgres"
	"feedlode/internal/observability/logging"
	"feedlode/internal/processor"
	"feedlode/internal/scheduler"
	"feedlode/pkg/config"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database, err := db.Open()
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	waitForMigrations(logger, database)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthAddr := fmt.Sprintf(":%d", config.GetEnvInt("SCHEDULER_HEALTH_PORT", 9091))
	healthServer := health.NewServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	startMetricsServer(ctx, logger)

	sched := buildScheduler(database)
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		sig := <-stop
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		healthServer.SetReady(false)
		cancel()
	}()

	healthServer.SetReady(true)
	logger.Info("scheduler starting",
		slog.Duration("tick_interval", sched.Config.TickInterval),
		slog.Int("concurrency", sched.Config.Concurrency))

	sched.Run(ctx)
	logger.Info("scheduler stopped")
}

// buildScheduler wires the parser, image fetcher, processor, and store into
// the scheduler loop.
func buildScheduler(database *sql.DB) *scheduler.Scheduler {
	feedStore := postgres.NewFeedRepo(database)
	itemStore := postgres.NewItemRepo(database)

	fetchTimeout := config.GetEnvDuration("FEED_FETCH_TIMEOUT", 30*time.Second)
	imageTimeout := config.GetEnvDuration("IMAGE_FETCH_TIMEOUT", 15*time.Second)

	parser := feedparser.New(&http.Client{Timeout: fetchTimeout})
	imageFetcher := imagefetch.New(&http.Client{Timeout: imageTimeout})

	proc := processor.New(parser, imageFetcher, feedStore, itemStore)
	proc.FetchTimeout = fetchTimeout

	return scheduler.New(feedStore, proc)
}

// waitForMigrations waits for the API process to create the schema, probing
// up to 10 times 3s apart, and exits the process if it never appears.
func waitForMigrations(logger *slog.Logger, database *sql.DB) {
	const probe = "SELECT 1 FROM feed LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := database.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}
