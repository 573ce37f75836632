// Package circuitbreaker stops the poller from pounding hosts that are
// plainly down. One breaker guards all feed fetches and one guards all
// image fetches (backed by github.com/sony/gobreaker); when a breaker is
// open, fetches fail instantly and the feeds simply wait for their next
// scheduled poll instead of burning a concurrency slot on a dead host.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned by Do while the breaker is rejecting calls. Callers
// treat it like any other fetch failure; it only changes how it is logged.
var ErrOpen = gobreaker.ErrOpenState

// Config describes one breaker's trip and recovery behavior.
type Config struct {
	// Name labels the breaker in state-change logs.
	Name string
	// TripRatio is the failure fraction that opens the breaker once
	// TripMinSamples calls have been observed in the current window.
	TripRatio float64
	// TripMinSamples prevents a handful of early failures from tripping a
	// breaker that has barely been exercised.
	TripMinSamples uint32
	// CountWindow is how long failure counts accumulate before resetting
	// while the breaker is closed.
	CountWindow time.Duration
	// OpenFor is how long an open breaker rejects calls before probing.
	OpenFor time.Duration
	// ProbeRequests is how many calls may pass while half-open.
	ProbeRequests uint32
}

// FeedFetchConfig guards the feed-document fetches. Feeds from many
// unrelated hosts share this breaker, so it trips reluctantly: a high ratio
// over a decent sample, and a short open period, because one bad host must
// not block polling of the rest for long.
func FeedFetchConfig() Config {
	return Config{
		Name:           "feed-fetch",
		TripRatio:      0.7,
		TripMinSamples: 10,
		CountWindow:    60 * time.Second,
		OpenFor:        120 * time.Second,
		ProbeRequests:  5,
	}
}

// ImageFetchConfig guards thumbnail inlining. Images are decoration — items
// store fine without them — so this breaker trips on less evidence and
// stays open much longer.
func ImageFetchConfig() Config {
	return Config{
		Name:           "image-fetch",
		TripRatio:      0.8,
		TripMinSamples: 5,
		CountWindow:    60 * time.Second,
		OpenFor:        300 * time.Second,
		ProbeRequests:  3,
	}
}

// Breaker wraps a gobreaker instance so the rest of the codebase never
// handles gobreaker types directly.
type Breaker struct {
	inner *gobreaker.CircuitBreaker
}

// New builds a Breaker from cfg.
func New(cfg Config) *Breaker {
	return &Breaker{inner: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.ProbeRequests,
		Interval:    cfg.CountWindow,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= cfg.TripMinSamples &&
				float64(counts.TotalFailures) >= cfg.TripRatio*float64(counts.Requests)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})}
}

// Do runs fn through the breaker, preserving fn's result type. While the
// breaker is open it returns ErrOpen without invoking fn.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	out, err := b.inner.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

// Open reports whether the breaker is currently rejecting calls.
func (b *Breaker) Open() bool {
	return b.inner.State() == gobreaker.StateOpen
}

// State returns the breaker state as a string, for logging.
func (b *Breaker) State() string {
	return b.inner.State().String()
}

// IsOpen is a helper for error inspection at call sites that only have the
// returned error.
func IsOpen(err error) bool {
	return errors.Is(err, ErrOpen)
}
