package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))

	ctx := WithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", FromContext(ctx))
}

func serveWithMiddleware(inboundID string) (*httptest.ResponseRecorder, string) {
	var seenID string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/feeds", nil)
	if inboundID != "" {
		req.Header.Set(RequestIDHeader, inboundID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seenID
}

func TestMiddleware_KeepsWellFormedInboundID(t *testing.T) {
	rec, seenID := serveWithMiddleware("upstream-7f3a.2")

	assert.Equal(t, "upstream-7f3a.2", seenID)
	assert.Equal(t, "upstream-7f3a.2", rec.Header().Get(RequestIDHeader))
}

func TestMiddleware_GeneratesIDWhenAbsent(t *testing.T) {
	rec, seenID := serveWithMiddleware("")

	require.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get(RequestIDHeader))
	_, err := uuid.Parse(seenID)
	assert.NoError(t, err, "generated ID should be a UUID")
}

func TestMiddleware_ReplacesMalformedInboundID(t *testing.T) {
	cases := []struct {
		name string
		id   string
	}{
		{"embedded newline", "abc\ndef"},
		{"log injection attempt", `x" level=ERROR msg="forged`},
		{"overlong", strings.Repeat("a", 65)},
		{"non-ascii", "идентификатор"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, seenID := serveWithMiddleware(tc.id)

			require.NotEmpty(t, seenID)
			assert.NotEqual(t, tc.id, seenID)
			_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
			assert.NoError(t, err)
		})
	}
}

func TestMiddleware_DistinctIDsPerRequest(t *testing.T) {
	_, first := serveWithMiddleware("")
	_, second := serveWithMiddleware("")

	assert.NotEqual(t, first, second)
}

func TestAcceptable(t *testing.T) {
	assert.True(t, acceptable("a1-B2_c3.d4"))
	assert.True(t, acceptable(uuid.NewString()))
	assert.False(t, acceptable(""))
	assert.False(t, acceptable("has space"))
	assert.False(t, acceptable(strings.Repeat("x", 65)))
	assert.True(t, acceptable(strings.Repeat("x", 64)))
}
