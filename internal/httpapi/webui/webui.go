// Package webui embeds and serves the single-page HTML shell at GET /.
// The page talks to the same process's /feeds and /items endpoints.
package webui

import (
	_ "embed"
	"net/http"
)

//go:embed index.html
var indexHTML []byte

// Register wires the UI shell onto the given mux. The pattern "/{$}" matches
// the root path only, so unknown paths still 404 instead of serving the UI.
func Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})
}
