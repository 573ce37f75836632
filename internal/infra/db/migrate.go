package db

import (
	"database/sql"
)

// MigrateUp creates the feed/item schema if it does not already exist. It is
// idempotent: safe to call on every process startup.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feed (
    feed_url              TEXT PRIMARY KEY,
    home_url              TEXT,
    name                  TEXT,
    link                  TEXT,
    image                 TEXT,
    last_published        TIMESTAMPTZ,
    last_fetched          TIMESTAMPTZ,
    next_fetch_at         TIMESTAMPTZ,
    publish_rate_per_hour DOUBLE PRECISION
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS item (
    url         TEXT PRIMARY KEY,
    feed_url    TEXT NOT NULL REFERENCES feed(feed_url) ON DELETE CASCADE,
    title       TEXT,
    description TEXT,
    content     TEXT,
    image       TEXT,
    published   TIMESTAMPTZ,
    author      TEXT
)`); err != nil {
		return err
	}

	indexes := []string{
		// Scheduler's due-feed query: nextFetchAt IS NULL OR <= now(), ordered ascending.
		`CREATE INDEX IF NOT EXISTS idx_feed_next_fetch_at ON feed(next_fetch_at)`,
		// Item listing/search joins back to its feed.
		`CREATE INDEX IF NOT EXISTS idx_item_feed_url ON item(feed_url)`,
		// searchItems orders by published DESC with nulls last.
		`CREATE INDEX IF NOT EXISTS idx_item_published ON item(published DESC NULLS LAST)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	if _, err := db.Exec(`
CREATE INDEX IF NOT EXISTS idx_item_fts ON item
    USING gin(to_tsvector('english', coalesce(title,'') || ' ' || coalesce(description,'') || ' ' || coalesce(content,'')))
`); err != nil {
		return err
	}

	return nil
}

// MigrateDown drops the feed/item schema. Use with caution: this deletes all
// data in both tables.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_item_fts`,
		`DROP INDEX IF EXISTS idx_item_published`,
		`DROP INDEX IF EXISTS idx_item_feed_url`,
		`DROP INDEX IF EXISTS idx_feed_next_fetch_at`,
		`DROP TABLE IF EXISTS item CASCADE`,
		`DROP TABLE IF EXISTS feed CASCADE`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
