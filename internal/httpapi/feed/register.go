package feed

import (
	"net/http"

	"feedlode/internal/store"
)

// Register wires the feed handlers onto the given mux.
func Register(mux *http.ServeMux, feeds store.FeedStore, proc Processor) {
	mux.Handle("GET /feeds", ListHandler{Feeds: feeds})
	mux.Handle("POST /feeds", SubscribeHandler{Feeds: feeds, Processor: proc})
	mux.Handle("DELETE /feeds", DeleteHandler{Feeds: feeds})
}
