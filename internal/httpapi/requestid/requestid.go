// Package requestid tags every API request with a correlation ID so the
// access log, handler warnings, and error responses for one request can be
// joined up. Callers may supply their own ID via the X-Request-ID header;
// anything that does not look like a sane ID is replaced rather than echoed,
// since the header is attacker-controlled input that ends up in logs.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is the header the ID is read from and written to.
const RequestIDHeader = "X-Request-ID"

// maxIDLength caps accepted inbound IDs; UUIDs are 36 characters, and
// anything much longer is noise (or log-stuffing) rather than an ID.
const maxIDLength = 64

type ctxKey struct{}

// FromContext returns the request ID carried by ctx, or "" if there is none.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// WithRequestID returns a context carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Middleware ensures every request has an ID: a well-formed inbound
// X-Request-ID is kept so callers can correlate across services, anything
// else gets a fresh UUID. The ID is set on the response header and the
// request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !acceptable(id) {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

// acceptable reports whether an inbound ID is safe to propagate: non-empty,
// bounded length, and limited to characters that cannot break log lines or
// header values.
func acceptable(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return false
		}
	}
	return true
}
