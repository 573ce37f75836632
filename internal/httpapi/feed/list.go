// Package feed implements the /feeds HTTP handlers: listing subscriptions,
// subscribing (a synchronous fetch-and-process), and deletion.
package feed

import (
	"net/http"

	"feedlode/internal/httpapi/respond"
	"feedlode/internal/store"
)

// ListHandler serves GET /feeds: every tracked feed as JSON.
type ListHandler struct{ Feeds store.FeedStore }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	list, err := h.Feeds.ListFeeds(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]DTO, 0, len(list))
	for _, f := range list {
		out = append(out, toDTO(f))
	}
	respond.JSON(w, http.StatusOK, out)
}
