package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedlode/internal/domain"
)

func newItemRepo(t *testing.T) (*ItemRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &ItemRepo{db: db}, mock
}

func TestInsertItemIfAbsent_NewRow(t *testing.T) {
	repo, mock := newItemRepo(t)
	published := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO item").
		WithArgs("https://a.example/1", "https://a.example/feed", "One", nil, nil, nil, published, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.InsertItemIfAbsent(context.Background(), domain.Item{
		URL:       "https://a.example/1",
		FeedURL:   "https://a.example/feed",
		Title:     "One",
		Published: &published,
	})

	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertItemIfAbsent_ConflictCountsZero(t *testing.T) {
	repo, mock := newItemRepo(t)

	mock.ExpectExec("INSERT INTO item").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.InsertItemIfAbsent(context.Background(), domain.Item{
		URL:     "https://a.example/1",
		FeedURL: "https://a.example/feed",
	})

	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestInsertItemIfAbsent_ExecError(t *testing.T) {
	repo, mock := newItemRepo(t)
	mock.ExpectExec("INSERT INTO item").WillReturnError(sql.ErrConnDone)

	_, err := repo.InsertItemIfAbsent(context.Background(), domain.Item{URL: "https://a.example/1"})

	assert.Error(t, err)
}

func TestExistsByURLBatch_EmptyInputSkipsQuery(t *testing.T) {
	repo, mock := newItemRepo(t)

	exists, err := repo.ExistsByURLBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsByURLBatch_MarksFoundURLs(t *testing.T) {
	repo, mock := newItemRepo(t)

	mock.ExpectQuery("SELECT url FROM item WHERE url = ANY").
		WillReturnRows(sqlmock.NewRows([]string{"url"}).AddRow("https://a.example/1"))

	exists, err := repo.ExistsByURLBatch(context.Background(),
		[]string{"https://a.example/1", "https://a.example/2"})

	require.NoError(t, err)
	assert.True(t, exists["https://a.example/1"])
	assert.False(t, exists["https://a.example/2"])
}

func TestSearchItems_EmptyQueryListsNewestFirst(t *testing.T) {
	repo, mock := newItemRepo(t)
	published := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("ORDER BY i.published DESC NULLS LAST").
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"url", "feed_url", "title", "description", "content", "image", "published", "author", "name",
		}).AddRow("https://a.example/1", "https://a.example/feed", "One", nil, nil, nil, published, nil, "A"))

	results, err := repo.SearchItems(context.Background(), "   ", 20, 0)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "One", results[0].Item.Title)
	assert.Equal(t, "A", results[0].FeedName)
}

func TestSearchItems_TokensBecomePrefixQuery(t *testing.T) {
	repo, mock := newItemRepo(t)

	mock.ExpectQuery("to_tsquery").
		WithArgs("hello:* & world:*", 10, 5).
		WillReturnRows(sqlmock.NewRows([]string{
			"url", "feed_url", "title", "description", "content", "image", "published", "author", "name",
		}))

	results, err := repo.SearchItems(context.Background(), "hello world", 10, 5)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToTSQuery(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"go", "go:*"},
		{"hello world", "hello:* & world:*"},
		{"a&b|c!d", "abcd:*"},
		{"it's", "its:*"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, toTSQuery(tc.in), "input %q", tc.in)
	}
}
