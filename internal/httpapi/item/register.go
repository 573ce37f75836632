package item

import (
	"net/http"

	"feedlode/internal/store"
)

// Register wires the item handlers onto the given mux.
func Register(mux *http.ServeMux, items store.ItemStore) {
	mux.Handle("GET /items", SearchHandler{Items: items})
}
