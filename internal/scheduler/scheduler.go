// Package scheduler drives the adaptive polling loop: at each tick it
// selects every due feed, dispatches them in fixed-size concurrent batches,
// and sleeps until the next feed is due (capped at one tick interval) so
// newly subscribed feeds are never missed for long.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"feedlode/internal/observability/metrics"
	"feedlode/internal/processor"
	"feedlode/internal/store"
)

// Config collects the scheduler's tunable constants in one named record,
// matching the rest of the system's Config-struct style (rate.Config,
// retry.Policy, circuitbreaker.Config).
type Config struct {
	// TickInterval is the maximum time between wakes, and the fallback
	// sleep duration when no feed has a future nextFetchAt.
	TickInterval time.Duration
	// Concurrency is the batch size for fanning out due feeds.
	Concurrency int
}

// DefaultConfig returns the production scheduler constants: TICK_MS=60000,
// CONCURRENCY=5.
func DefaultConfig() Config {
	return Config{
		TickInterval: 60 * time.Second,
		Concurrency:  5,
	}
}

// Processor is the subset of *processor.Processor the scheduler depends on,
// narrowed to an interface so tests can substitute a fake.
type Processor interface {
	Process(ctx context.Context, feedURL string) (*processor.Result, error)
}

// Scheduler owns the tick/wake control loop. Exactly one instance should run
// per database; running more than one causes duplicate fetches, since there
// is no leader election (see DESIGN.md).
type Scheduler struct {
	FeedStore store.FeedStore
	Processor Processor
	Config    Config
	Now       func() time.Time
}

// New builds a Scheduler with the production DefaultConfig and time.Now
// clock; tests construct the struct literal directly to inject a fixed clock
// and short tick interval.
func New(feedStore store.FeedStore, proc Processor) *Scheduler {
	return &Scheduler{
		FeedStore: feedStore,
		Processor: proc,
		Config:    DefaultConfig(),
		Now:       time.Now,
	}
}

// Run executes the tick/wake loop until ctx is cancelled. A tick that fails
// outright (e.g. the due-feed query errors) is logged and the loop sleeps
// until the next computed wake as usual; it never aborts the scheduler.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sleep := s.tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

// tick runs one iteration: select due feeds, dispatch them in bounded
// batches, and compute how long to sleep before the next wake.
func (s *Scheduler) tick(ctx context.Context) time.Duration {
	start := s.Now()
	metrics.SchedulerTicksTotal.Inc()

	due, err := s.FeedStore.SelectDueFeeds(ctx)
	if err != nil {
		slog.Error("scheduler: select due feeds failed", slog.Any("error", err))
		metrics.SchedulerTickDuration.Observe(time.Since(start).Seconds())
		return s.nextWake(ctx)
	}

	metrics.SchedulerDueFeeds.Set(float64(len(due)))
	s.dispatch(ctx, due)

	metrics.SchedulerTickDuration.Observe(time.Since(start).Seconds())
	return s.nextWake(ctx)
}

// dispatch processes due in fixed-size batches of Concurrency, running every
// feed in a batch in parallel and awaiting all of them — success or
// failure — before starting the next batch. A single feed's error never
// cancels its batch-mates.
func (s *Scheduler) dispatch(ctx context.Context, due []string) {
	concurrency := s.Config.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	for start := 0; start < len(due); start += concurrency {
		end := start + concurrency
		if end > len(due) {
			end = len(due)
		}
		batch := due[start:end]

		var wg sync.WaitGroup
		wg.Add(len(batch))
		for _, feedURL := range batch {
			go func(url string) {
				defer wg.Done()
				s.processOne(ctx, url)
			}(feedURL)
		}
		wg.Wait()
	}
}

// processOne runs the processor for a single feed, logging (never
// propagating) any failure so one bad feed never interrupts the batch.
func (s *Scheduler) processOne(ctx context.Context, feedURL string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler: feed processing panicked",
				slog.String("feed_url", feedURL), slog.Any("panic", r))
		}
	}()

	result, err := s.Processor.Process(ctx, feedURL)
	if err != nil {
		slog.Warn("scheduler: feed processing failed",
			slog.String("feed_url", feedURL), slog.Any("error", err))
		return
	}
	if result == nil {
		return
	}

	slog.Info("scheduler: feed processed",
		slog.String("feed_url", result.FinalURL),
		slog.Int("items_inserted", result.ItemsInserted))
}

// nextWake computes how long to sleep until the next wake, clamped to
// [0, TickInterval]. A store error falls back to a full tick interval rather
// than busy-looping.
func (s *Scheduler) nextWake(ctx context.Context) time.Duration {
	earliest, err := s.FeedStore.SelectEarliestFutureFetch(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("scheduler: select earliest future fetch failed", slog.Any("error", err))
		metrics.SchedulerSleepSeconds.Set(s.Config.TickInterval.Seconds())
		return s.Config.TickInterval
	}
	if earliest == nil {
		metrics.SchedulerSleepSeconds.Set(s.Config.TickInterval.Seconds())
		return s.Config.TickInterval
	}

	sleep := earliest.Sub(s.Now())
	if sleep < 0 {
		sleep = 0
	}
	if sleep > s.Config.TickInterval {
		sleep = s.Config.TickInterval
	}

	metrics.SchedulerSleepSeconds.Set(sleep.Seconds())
	return sleep
}
