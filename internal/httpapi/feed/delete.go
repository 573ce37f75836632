package feed

import (
	"errors"
	"net/http"

	"feedlode/internal/domain"
	"feedlode/internal/httpapi/respond"
	"feedlode/internal/store"
)

// DeleteHandler serves DELETE /feeds?url=: it removes the feed row and,
// through the cascade, every item that belonged to it.
type DeleteHandler struct{ Feeds store.FeedStore }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		respond.SafeError(w, http.StatusBadRequest, errors.New("url parameter is required"))
		return
	}

	if err := h.Feeds.DeleteFeed(r.Context(), url); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respond.SafeError(w, http.StatusNotFound, errors.New("feed not found"))
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
