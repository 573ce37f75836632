package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"feedlode/internal/domain"
	"feedlode/internal/store"
)

// ItemRepo is the Postgres-backed implementation of store.ItemStore.
type ItemRepo struct{ db *sql.DB }

// NewItemRepo wires an ItemRepo over an open connection pool.
func NewItemRepo(db *sql.DB) store.ItemStore {
	return &ItemRepo{db: db}
}

// InsertItemIfAbsent inserts an item unless its URL already exists
// (ON CONFLICT DO NOTHING), reporting whether a new row landed. There is no
// update path for items per the data model: once inserted a row is
// immutable for the lifetime of its feed.
func (r *ItemRepo) InsertItemIfAbsent(ctx context.Context, item domain.Item) (bool, error) {
	const query = `
INSERT INTO item (url, feed_url, title, description, content, image, published, author)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (url) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		item.URL, item.FeedURL, nullIfEmpty(item.Title), nullIfEmpty(item.Description),
		nullIfEmpty(item.Content), nullIfEmpty(item.Image), item.Published, nullIfEmpty(item.Author),
	)
	if err != nil {
		return false, fmt.Errorf("InsertItemIfAbsent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("InsertItemIfAbsent: rows affected: %w", err)
	}
	return n > 0, nil
}

// ExistsByURLBatch checks which of the given URLs already have item rows,
// in one query. Every requested URL appears in the result map; absent rows
// map to false.
func (r *ItemRepo) ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	exists := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return exists, nil
	}
	for _, u := range urls {
		exists[u] = false
	}

	const query = `SELECT url FROM item WHERE url = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(urls))
	if err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("ExistsByURLBatch: scan: %w", err)
		}
		exists[url] = true
	}
	return exists, rows.Err()
}

// SearchItems runs a full-text search over title/description/content,
// joined with the owning feed's name, ordered by published DESC with nulls
// last. An empty query matches every item (token-less searches return the
// full corpus page, which the API's default listing relies on).
func (r *ItemRepo) SearchItems(ctx context.Context, query string, limit, offset int) ([]store.ItemSearchResult, error) {
	const base = `
SELECT i.url, i.feed_url, i.title, i.description, i.content, i.image, i.published, i.author,
       COALESCE(f.name, '')
FROM item i
LEFT JOIN feed f ON f.feed_url = i.feed_url`

	var sqlQuery string
	args := make([]interface{}, 0, 3)

	tsQuery := toTSQuery(query)
	if tsQuery == "" {
		sqlQuery = base + `
ORDER BY i.published DESC NULLS LAST
LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	} else {
		sqlQuery = base + `
WHERE to_tsvector('english', coalesce(i.title,'') || ' ' || coalesce(i.description,'') || ' ' || coalesce(i.content,''))
      @@ to_tsquery('english', $1)
ORDER BY i.published DESC NULLS LAST
LIMIT $2 OFFSET $3`
		args = append(args, tsQuery, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("SearchItems: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]store.ItemSearchResult, 0, limit)
	for rows.Next() {
		var item domain.Item
		var title, description, content, image, author sql.NullString
		var published sql.NullTime
		var feedName string

		if err := rows.Scan(
			&item.URL, &item.FeedURL, &title, &description, &content, &image, &published, &author,
			&feedName,
		); err != nil {
			return nil, fmt.Errorf("SearchItems: scan: %w", err)
		}

		item.Title = title.String
		item.Description = description.String
		item.Content = content.String
		item.Image = image.String
		item.Author = author.String
		if published.Valid {
			t := published.Time
			item.Published = &t
		}

		results = append(results, store.ItemSearchResult{Item: item, FeedName: feedName})
	}
	return results, rows.Err()
}

// toTSQuery builds a prefix-match AND query from whitespace-separated
// tokens: each token is suffixed with ":*" and joined with "&". An
// empty or whitespace-only input yields "" (no filter).
func toTSQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, sanitizeToken(f)+":*")
	}
	return strings.Join(tokens, " & ")
}

// sanitizeToken strips the tsquery operator characters & | ! ( ) : and the
// single quote, since tokens come from untrusted API query parameters.
func sanitizeToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&', '|', '!', '(', ')', ':', '\'':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
