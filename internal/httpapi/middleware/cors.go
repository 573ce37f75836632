// Package middleware holds HTTP middleware that carries its own
// configuration, currently CORS for the embedded web UI's origin.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"feedlode/pkg/config"
)

// CORSConfig holds the CORS policy applied to cross-origin requests.
type CORSConfig struct {
	// AllowedOrigins is the whitelist of permitted origins. Empty means CORS
	// headers are never set and cross-origin requests are left to the
	// browser's same-origin policy.
	AllowedOrigins []string

	// AllowedMethods are the HTTP methods advertised on preflight.
	AllowedMethods []string

	// AllowedHeaders are the request headers advertised on preflight.
	AllowedHeaders []string

	// MaxAge is how long a preflight result may be cached, in seconds.
	MaxAge int
}

// LoadCORSConfig builds the CORS policy from environment variables, with
// defaults suited to the embedded web UI being served from the same process.
//
//	CORS_ALLOWED_ORIGINS  comma-separated origin whitelist (default: none)
//	CORS_ALLOWED_METHODS  comma-separated methods (default: GET,POST,DELETE,OPTIONS)
//	CORS_ALLOWED_HEADERS  comma-separated headers (default: Content-Type,X-Request-ID)
//	CORS_MAX_AGE          preflight cache seconds (default: 86400)
func LoadCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: config.GetEnvStringList("CORS_ALLOWED_ORIGINS", nil),
		AllowedMethods: config.GetEnvStringList("CORS_ALLOWED_METHODS",
			[]string{"GET", "POST", "DELETE", "OPTIONS"}),
		AllowedHeaders: config.GetEnvStringList("CORS_ALLOWED_HEADERS",
			[]string{"Content-Type", "X-Request-ID"}),
		MaxAge: config.GetEnvInt("CORS_MAX_AGE", 86400),
	}
}

// CORS returns middleware that handles cross-origin requests against the
// configured origin whitelist. Same-origin requests (no Origin header) pass
// through untouched; disallowed origins get no CORS headers, so the browser
// blocks the response; allowed origins get the standard header set, and
// preflight OPTIONS requests are answered directly with 204.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !originAllowed(cfg.AllowedOrigins, origin) {
				slog.Warn("cors: origin not allowed",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == origin {
			return true
		}
	}
	return false
}
