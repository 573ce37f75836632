// Package item implements the /items HTTP handler: full-text search over
// stored items, joined with feed metadata.
package item

import (
	"net/http"
	"strconv"

	"feedlode/internal/httpapi/respond"
	"feedlode/internal/store"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// SearchHandler serves GET /items?q=&limit=&offset=. An empty q returns the
// newest items unfiltered, which is what the web UI's landing view shows.
type SearchHandler struct{ Items store.ItemStore }

func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := clampInt(parseIntDefault(r.URL.Query().Get("limit"), defaultLimit), 1, maxLimit)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	results, err := h.Items.SearchItems(r.Context(), q, limit, offset)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]DTO, 0, len(results))
	for _, res := range results {
		out = append(out, toDTO(res))
	}
	respond.JSON(w, http.StatusOK, out)
}

// parseIntDefault parses s as an integer, falling back to def on an empty or
// malformed value rather than rejecting the request.
func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func clampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
