// Package store defines the persistence contract required by the feed
// processor, scheduler, and HTTP API. Concrete implementations live under
// internal/infra/postgres.
package store

import (
	"context"
	"time"

	"feedlode/internal/domain"
)

// ItemSearchResult is one row of a full-text search, flattened with the
// feed metadata the API response joins in.
type ItemSearchResult struct {
	Item     domain.Item
	FeedName string
}

// FeedStore exposes the feed-table operations the scheduler and processor
// need to close the adaptive polling loop.
type FeedStore interface {
	// SelectDueFeeds returns feed URLs whose NextFetchAt is null or has
	// passed, ordered ascending with nulls first.
	SelectDueFeeds(ctx context.Context) ([]string, error)
	// SelectEarliestFutureFetch returns the NextFetchAt of the feed with the
	// soonest still-future wake instant, or nil if none exists.
	SelectEarliestFutureFetch(ctx context.Context) (*time.Time, error)
	// SelectFeedRate returns the current smoothed publish rate for a feed,
	// or nil if the feed is unknown or has never been rated.
	SelectFeedRate(ctx context.Context, feedURL string) (*float64, error)
	// UpsertFeed inserts or updates a feed row keyed by FeedURL.
	UpsertFeed(ctx context.Context, feed domain.Feed) error
	// ListFeeds returns every tracked feed.
	ListFeeds(ctx context.Context) ([]domain.Feed, error)
	// GetFeed returns a single feed by URL, or nil if not found.
	GetFeed(ctx context.Context, feedURL string) (*domain.Feed, error)
	// DeleteFeed removes a feed and cascades to its items.
	DeleteFeed(ctx context.Context, feedURL string) error
}

// ItemStore exposes the item-table operations the processor and search API
// need.
type ItemStore interface {
	// InsertItemIfAbsent inserts an item unless a row with the same URL
	// already exists, reporting whether a new row was inserted.
	InsertItemIfAbsent(ctx context.Context, item domain.Item) (bool, error)
	// ExistsByURLBatch reports which of the given item URLs are already
	// stored, in a single round trip. The processor uses it to skip image
	// inlining for items that will conflict anyway.
	ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error)
	// SearchItems runs a full-text search over title/description/content,
	// joined with feed name, ordered by published DESC with nulls last.
	SearchItems(ctx context.Context, query string, limit, offset int) ([]ItemSearchResult, error)
}
