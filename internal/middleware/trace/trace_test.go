package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})
	h := NewMiddleware(func(*http.Request) string { return "1.2.3.4" }).Middleware(mux)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things/7", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestMiddlewareReusesValidIncomingID(t *testing.T) {
	h := NewMiddleware(nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	id := uuid.NewString()

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, id)
	h.ServeHTTP(rr, r)
	assert.Equal(t, id, rr.Header().Get(RequestIDHeader))

	rr = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "not-a-uuid")
	h.ServeHTTP(rr, r)
	assert.NotEqual(t, "not-a-uuid", rr.Header().Get(RequestIDHeader))
}

func TestRouteLabel(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "unmatched", routeLabel(r))
	r.Pattern = "GET /api/overview"
	assert.Equal(t, "GET /api/overview", routeLabel(r))
}
