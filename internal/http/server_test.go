package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tempo/internal/auth"
	"tempo/internal/core"
	"tempo/internal/records/memory"
	"tempo/internal/services"
	"tempo/internal/stats"
)

const testPassword = "s3cret"

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, seed ...core.ActivityRecord) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New(seed...)
	verifier := auth.NewVerifier(store, auth.WithCost(bcrypt.MinCost))
	require.NoError(t, verifier.SetSecret(context.Background(), testPassword))

	srv := NewServer(":0", Deps{
		Activities: services.NewActivityService(store, nil),
		Insights:   services.NewInsightsService(store, services.WithClock(func() time.Time { return testNow })),
		Verifier:   verifier,
	})
	t.Cleanup(func() { srv.rateLimiter.Stop() })
	return srv, store
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.SetBasicAuth("me", testPassword)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodGet, "/api/overview", "")

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "tempo_http_request_duration_seconds")
}

func TestPasswordGate(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/activities", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Basic")

	req := httptest.NewRequest(http.MethodGet, "/api/activities", nil)
	req.SetBasicAuth("me", "nope")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/activities", "").Code)
}

func TestPasswordGateWithoutSecret(t *testing.T) {
	store := memory.New()
	srv := NewServer(":0", Deps{
		Activities: services.NewActivityService(store, nil),
		Insights:   services.NewInsightsService(store),
		Verifier:   auth.NewVerifier(store),
	})
	defer srv.rateLimiter.Stop()

	rr := do(t, srv, http.MethodGet, "/api/activities", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestActivityCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/activities", `{"date":"2024-03-14","activity":" Reading ","duration_minutes":45,"notes":"novel"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[core.ActivityRecord](t, rr)
	assert.Equal(t, "Reading", created.Activity)
	assert.Equal(t, "/api/activities/1", rr.Header().Get("Location"))

	rr = do(t, srv, http.MethodPost, "/api/activities", `{"activity":"Gym","duration_minutes":30}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, core.DateOf(testNow), decode[core.ActivityRecord](t, rr).Date)

	rr = do(t, srv, http.MethodPut, "/api/activities/1", `{"date":"2024-03-14","activity":"Reading","duration_minutes":60}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 60, decode[core.ActivityRecord](t, rr).DurationMinutes)

	rr = do(t, srv, http.MethodGet, "/api/activities/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[core.ActivityRecord](t, rr).Notes)

	list := decode[[]core.ActivityRecord](t, do(t, srv, http.MethodGet, "/api/activities", ""))
	require.Len(t, list, 2)
	assert.Equal(t, "Gym", list[0].Activity)

	list = decode[[]core.ActivityRecord](t, do(t, srv, http.MethodGet, "/api/activities?search=read", ""))
	require.Len(t, list, 1)

	names := decode[[]string](t, do(t, srv, http.MethodGet, "/api/activities/names", ""))
	assert.Equal(t, []string{"Gym", "Reading"}, names)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/activities/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodDelete, "/api/activities/1", "").Code)
}

func TestActivityErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/api/activities", `{"activity":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/activities", `{"activity":"x","duration_minutes":1,"extra":true}`, http.StatusBadRequest},
		{"empty activity", http.MethodPost, "/api/activities", `{"activity":"  ","duration_minutes":1}`, http.StatusUnprocessableEntity},
		{"negative duration", http.MethodPost, "/api/activities", `{"activity":"x","duration_minutes":-5}`, http.StatusUnprocessableEntity},
		{"missing duration", http.MethodPost, "/api/activities", `{"activity":"x"}`, http.StatusUnprocessableEntity},
		{"bad date", http.MethodPost, "/api/activities", `{"date":"2024-02-30","activity":"x","duration_minutes":1}`, http.StatusUnprocessableEntity},
		{"bad id", http.MethodGet, "/api/activities/abc", "", http.StatusUnprocessableEntity},
		{"missing id", http.MethodPut, "/api/activities/42", `{"activity":"x","duration_minutes":1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
			assert.NotEmpty(t, decode[errorBody](t, rr).Error)
		})
	}
}

func TestInsightsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t,
		core.ActivityRecord{Date: core.NewDate(2024, 3, 15), Activity: "Reading", DurationMinutes: 30},
		core.ActivityRecord{Date: core.NewDate(2024, 3, 14), Activity: "Gym", DurationMinutes: 60},
		core.ActivityRecord{Date: core.NewDate(2024, 3, 14), Activity: "Reading", DurationMinutes: 40},
	)

	summary := decode[stats.Summary](t, do(t, srv, http.MethodGet, "/api/summary?period=last7days", ""))
	assert.Equal(t, 130, summary.TotalMinutes)
	require.Len(t, summary.Entries, 2)
	assert.Equal(t, "Reading", summary.Entries[0].Activity)

	rr := do(t, srv, http.MethodGet, "/api/summary?period=decade", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/report?period=month&format=text", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rr.Body.String(), "Reading")

	rr = do(t, srv, http.MethodGet, "/api/report?period=month", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	series := decode[stats.Series](t, do(t, srv, http.MethodGet, "/api/series/daily?days=7", ""))
	require.Len(t, series.Points, 7)
	assert.Equal(t, 30, series.Points[6].TotalMinutes)
	assert.Equal(t, 100, series.Points[5].TotalMinutes)

	series = decode[stats.Series](t, do(t, srv, http.MethodGet, "/api/series/daily", ""))
	assert.Len(t, series.Points, services.DefaultWindowDays)

	rr = do(t, srv, http.MethodGet, "/api/series/daily?days=100000000", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	dist := decode[stats.Distribution](t, do(t, srv, http.MethodGet, "/api/series/distribution?start=2024-03-01&end=2024-03-15&top=1", ""))
	require.Len(t, dist.Slices, 2)
	assert.Equal(t, stats.OtherLabel, dist.Slices[1].Label)

	rr = do(t, srv, http.MethodGet, "/api/series/distribution?start=2024-03-15&end=2024-03-01", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	overview := decode[stats.Overview](t, do(t, srv, http.MethodGet, "/api/overview", ""))
	assert.Equal(t, 3, overview.TotalRecords)

	today := decode[services.TodayTotal](t, do(t, srv, http.MethodGet, "/api/today", ""))
	assert.Equal(t, 30, today.TotalMinutes)

	dash := decode[services.Dashboard](t, do(t, srv, http.MethodGet, "/api/dashboard?period=all", ""))
	assert.Equal(t, 130, dash.Summary.TotalMinutes)
	assert.Len(t, dash.Daily.Points, services.DefaultWindowDays)
}

func TestExportCSV(t *testing.T) {
	srv, _ := newTestServer(t,
		core.ActivityRecord{Date: core.NewDate(2024, 3, 14), Activity: "Gym", DurationMinutes: 60},
	)
	rr := do(t, srv, http.MethodGet, "/api/export.csv", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="activities_20240315.csv"`, rr.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "\ufeffDate,Activity,Duration (min),Notes"))
	assert.Contains(t, rr.Body.String(), "2024-03-14,Gym,60,")
}

func TestRateLimitOnlyMutations(t *testing.T) {
	store := memory.New()
	verifier := auth.NewVerifier(store, auth.WithCost(bcrypt.MinCost))
	require.NoError(t, verifier.SetSecret(context.Background(), testPassword))
	srv := NewServer(":0", Deps{
		Activities:         services.NewActivityService(store, nil),
		Insights:           services.NewInsightsService(store),
		Verifier:           verifier,
		RateLimitPerMinute: 1,
	})
	defer srv.rateLimiter.Stop()

	assert.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/activities", `{"activity":"x","duration_minutes":1}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, srv, http.MethodPost, "/api/activities", `{"activity":"x","duration_minutes":1}`).Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/activities", "").Code)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb", SanitizeInput("  a\x00\tb\x07 "))
	assert.Equal(t, "line1\nline2", SanitizeInput("line1\nline2\r"))
}
