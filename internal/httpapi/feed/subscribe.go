package feed

import (
	"context"
	"errors"
	"net/http"

	"feedlode/internal/domain"
	"feedlode/internal/httpapi/respond"
	"feedlode/internal/processor"
	"feedlode/internal/store"
)

// Processor is the subset of *processor.Processor the subscription handler
// depends on, narrowed to an interface so tests can substitute a fake.
type Processor interface {
	Process(ctx context.Context, feedURL string) (*processor.Result, error)
}

// SubscribeHandler serves POST /feeds?url=: it fetches and processes the feed
// synchronously, so the caller learns immediately whether the URL is a
// working feed and under which post-redirect URL it was stored.
type SubscribeHandler struct {
	Feeds     store.FeedStore
	Processor Processor
}

func (h SubscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if err := domain.ValidateURL(rawURL); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.Processor.Process(r.Context(), rawURL)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if result == nil {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("invalid feed: url could not be fetched or parsed"))
		return
	}

	stored, err := h.Feeds.GetFeed(r.Context(), result.FinalURL)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if stored == nil {
		respond.SafeError(w, http.StatusInternalServerError,
			errors.New("feed row missing after processing"))
		return
	}

	respond.JSON(w, http.StatusOK, SubscribeResponse{
		Feed:          toDTO(*stored),
		ItemsInserted: result.ItemsInserted,
	})
}
