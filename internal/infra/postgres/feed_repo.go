// Package postgres implements the store interfaces over database/sql using
// the pgx stdlib driver, in a raw-SQL repository style:
// one struct per aggregate, context-first methods, sql.ErrNoRows folded to
// a nil result rather than propagated as an error.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feedlode/internal/domain"
	"feedlode/internal/store"
)

// FeedRepo is the Postgres-backed implementation of store.FeedStore.
type FeedRepo struct{ db *sql.DB }

// NewFeedRepo wires a FeedRepo over an open connection pool.
func NewFeedRepo(db *sql.DB) store.FeedStore {
	return &FeedRepo{db: db}
}

func scanFeed(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Feed, error) {
	var feed domain.Feed
	var homeURL, name, link, image sql.NullString
	var lastPublished, lastFetched, nextFetchAt sql.NullTime
	var publishRate sql.NullFloat64

	if err := row.Scan(
		&feed.FeedURL, &homeURL, &name, &link, &image,
		&lastPublished, &lastFetched, &nextFetchAt, &publishRate,
	); err != nil {
		return nil, err
	}

	feed.HomeURL = homeURL.String
	feed.Name = name.String
	feed.Link = link.String
	feed.Image = image.String
	if lastPublished.Valid {
		t := lastPublished.Time
		feed.LastPublished = &t
	}
	if lastFetched.Valid {
		t := lastFetched.Time
		feed.LastFetched = &t
	}
	if nextFetchAt.Valid {
		t := nextFetchAt.Time
		feed.NextFetchAt = &t
	}
	if publishRate.Valid {
		r := publishRate.Float64
		feed.PublishRatePerHour = &r
	}

	return &feed, nil
}

const feedColumns = `feed_url, home_url, name, link, image, last_published, last_fetched, next_fetch_at, publish_rate_per_hour`

// SelectDueFeeds returns feed URLs due for a poll, most-overdue first —
// never-polled feeds (NextFetchAt IS NULL) sort ahead of any scheduled one.
func (r *FeedRepo) SelectDueFeeds(ctx context.Context) ([]string, error) {
	const query = `
SELECT feed_url FROM feed
WHERE next_fetch_at IS NULL OR next_fetch_at <= now()
ORDER BY next_fetch_at ASC NULLS FIRST`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("SelectDueFeeds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	urls := make([]string, 0, 16)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("SelectDueFeeds: scan: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

// SelectEarliestFutureFetch drives the scheduler's next-wake calculation.
func (r *FeedRepo) SelectEarliestFutureFetch(ctx context.Context) (*time.Time, error) {
	const query = `
SELECT next_fetch_at FROM feed
WHERE next_fetch_at > now()
ORDER BY next_fetch_at ASC LIMIT 1`
	var t time.Time
	err := r.db.QueryRowContext(ctx, query).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("SelectEarliestFutureFetch: %w", err)
	}
	return &t, nil
}

// SelectFeedRate reads the prior publish rate the estimator should smooth
// against; nil when the feed is new or has never produced a rate.
func (r *FeedRepo) SelectFeedRate(ctx context.Context, feedURL string) (*float64, error) {
	const query = `SELECT publish_rate_per_hour FROM feed WHERE feed_url = $1`
	var rate sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, feedURL).Scan(&rate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("SelectFeedRate: %w", err)
	}
	if !rate.Valid {
		return nil, nil
	}
	return &rate.Float64, nil
}

// UpsertFeed inserts or updates a feed row keyed by FeedURL. Soft metadata
// (home/name/link/image) only overwrites on a non-null incoming value, so a
// transient parse that yields an empty title never clobbers a good one;
// LastFetched/NextFetchAt/PublishRatePerHour are always the processor's
// freshly computed values and are set unconditionally.
func (r *FeedRepo) UpsertFeed(ctx context.Context, feed domain.Feed) error {
	const query = `
INSERT INTO feed (feed_url, home_url, name, link, image, last_published, last_fetched, next_fetch_at, publish_rate_per_hour)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (feed_url) DO UPDATE SET
    home_url              = COALESCE(EXCLUDED.home_url, feed.home_url),
    name                  = COALESCE(EXCLUDED.name, feed.name),
    link                  = COALESCE(EXCLUDED.link, feed.link),
    image                 = COALESCE(EXCLUDED.image, feed.image),
    last_published        = COALESCE(EXCLUDED.last_published, feed.last_published),
    last_fetched          = EXCLUDED.last_fetched,
    next_fetch_at         = EXCLUDED.next_fetch_at,
    publish_rate_per_hour = EXCLUDED.publish_rate_per_hour`

	_, err := r.db.ExecContext(ctx, query,
		feed.FeedURL, nullIfEmpty(feed.HomeURL), nullIfEmpty(feed.Name), nullIfEmpty(feed.Link), nullIfEmpty(feed.Image),
		feed.LastPublished, feed.LastFetched, feed.NextFetchAt, feed.PublishRatePerHour,
	)
	if err != nil {
		return fmt.Errorf("UpsertFeed: %w", err)
	}
	return nil
}

// ListFeeds returns every tracked feed for the administrative listing endpoint.
func (r *FeedRepo) ListFeeds(ctx context.Context) ([]domain.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feed ORDER BY feed_url ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListFeeds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]domain.Feed, 0, 32)
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("ListFeeds: scan: %w", err)
		}
		feeds = append(feeds, *feed)
	}
	return feeds, rows.Err()
}

// GetFeed returns a single feed by URL, or nil if it does not exist.
func (r *FeedRepo) GetFeed(ctx context.Context, feedURL string) (*domain.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feed WHERE feed_url = $1 LIMIT 1`
	feed, err := scanFeed(r.db.QueryRowContext(ctx, query, feedURL))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetFeed: %w", err)
	}
	return feed, nil
}

// DeleteFeed removes a feed; its items cascade via the FK constraint.
func (r *FeedRepo) DeleteFeed(ctx context.Context, feedURL string) error {
	const query = `DELETE FROM feed WHERE feed_url = $1`
	res, err := r.db.ExecContext(ctx, query, feedURL)
	if err != nil {
		return fmt.Errorf("DeleteFeed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("DeleteFeed: %w", domain.ErrNotFound)
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
