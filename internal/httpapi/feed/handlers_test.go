package feed_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedlode/internal/domain"
	"feedlode/internal/httpapi/feed"
	"feedlode/internal/processor"
)

type fakeFeedStore struct {
	feeds     []domain.Feed
	listErr   error
	deleted   []string
	deleteErr error
}

func (s *fakeFeedStore) SelectDueFeeds(context.Context) ([]string, error)             { return nil, nil }
func (s *fakeFeedStore) SelectEarliestFutureFetch(context.Context) (*time.Time, error) { return nil, nil }
func (s *fakeFeedStore) SelectFeedRate(context.Context, string) (*float64, error)      { return nil, nil }
func (s *fakeFeedStore) UpsertFeed(context.Context, domain.Feed) error                 { return nil }
func (s *fakeFeedStore) ListFeeds(context.Context) ([]domain.Feed, error) {
	return s.feeds, s.listErr
}
func (s *fakeFeedStore) GetFeed(_ context.Context, url string) (*domain.Feed, error) {
	for i := range s.feeds {
		if s.feeds[i].FeedURL == url {
			return &s.feeds[i], nil
		}
	}
	return nil, nil
}
func (s *fakeFeedStore) DeleteFeed(_ context.Context, url string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, url)
	return nil
}

type fakeProcessor struct {
	result *processor.Result
	err    error
}

func (p *fakeProcessor) Process(context.Context, string) (*processor.Result, error) {
	return p.result, p.err
}

func TestList_ReturnsFeedsAsJSON(t *testing.T) {
	rate := 1.5
	store := &fakeFeedStore{feeds: []domain.Feed{
		{FeedURL: "https://a.example/feed.xml", Name: "A", PublishRatePerHour: &rate},
	}}

	rec := httptest.NewRecorder()
	feed.ListHandler{Feeds: store}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feeds", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var out []feed.DTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "https://a.example/feed.xml", out[0].FeedURL)
	assert.Equal(t, "A", out[0].Name)
	require.NotNil(t, out[0].PublishRatePerHour)
	assert.InDelta(t, 1.5, *out[0].PublishRatePerHour, 1e-9)
}

func TestList_StoreError_Returns500(t *testing.T) {
	rec := httptest.NewRecorder()
	feed.ListHandler{Feeds: &fakeFeedStore{listErr: errors.New("db down")}}.
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feeds", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestSubscribe_MissingURL_Returns400(t *testing.T) {
	rec := httptest.NewRecorder()
	feed.SubscribeHandler{Feeds: &fakeFeedStore{}, Processor: &fakeProcessor{}}.
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/feeds", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscribe_UnfetchableFeed_Returns400(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/feeds?url=https://example.com/feed.xml", nil)

	feed.SubscribeHandler{Feeds: &fakeFeedStore{}, Processor: &fakeProcessor{result: nil}}.
		ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid feed")
}

func TestSubscribe_ReturnsStoredFeedUnderFinalURL(t *testing.T) {
	// Subscribing with the pre-redirect URL must return the row keyed by the
	// post-redirect one.
	store := &fakeFeedStore{feeds: []domain.Feed{
		{FeedURL: "https://a.example/feed.xml", Name: "A"},
	}}
	proc := &fakeProcessor{result: &processor.Result{
		FinalURL:      "https://a.example/feed.xml",
		ItemsInserted: 3,
	}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/feeds?url=http://a.example/feed", nil)
	feed.SubscribeHandler{Feeds: store, Processor: proc}.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out feed.SubscribeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "https://a.example/feed.xml", out.Feed.FeedURL)
	assert.Equal(t, 3, out.ItemsInserted)
}

func TestDelete_MissingURL_Returns400(t *testing.T) {
	rec := httptest.NewRecorder()
	feed.DeleteHandler{Feeds: &fakeFeedStore{}}.
		ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/feeds", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete_UnknownFeed_Returns404(t *testing.T) {
	store := &fakeFeedStore{deleteErr: domain.ErrNotFound}

	rec := httptest.NewRecorder()
	feed.DeleteHandler{Feeds: store}.
		ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/feeds?url=https://gone.example/feed", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete_Success_Returns204(t *testing.T) {
	store := &fakeFeedStore{}

	rec := httptest.NewRecorder()
	feed.DeleteHandler{Feeds: store}.
		ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/feeds?url=https://a.example/feed.xml", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"https://a.example/feed.xml"}, store.deleted)
}
