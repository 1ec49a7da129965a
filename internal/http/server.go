// Package http serves the activity log and its insights as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tempo/internal/log"
	"tempo/internal/middleware/ratelimit"
	"tempo/internal/middleware/security"
	"tempo/internal/middleware/trace"
	"tempo/internal/services"
)

// SecretVerifier checks the shared access secret. auth.Verifier implements it.
type SecretVerifier interface {
	VerifySecret(ctx context.Context, candidate string) (bool, error)
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Activities *services.ActivityService
	Insights   *services.InsightsService
	Verifier   SecretVerifier
	// RateLimitPerMinute bounds mutating requests per client. Zero uses the limiter default.
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	activities *services.ActivityService
	insights   *services.InsightsService
	verifier   SecretVerifier

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	logger      *log.Logger
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	limiterCfg := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		limiterCfg.RequestsPerMinute = deps.RateLimitPerMinute
	}

	s := &Server{
		activities:  deps.Activities,
		insights:    deps.Insights,
		verifier:    deps.Verifier,
		rateLimiter: ratelimit.NewLimiter(limiterCfg),
		detector:    security.NewDetector(),
		logger:      log.Default(log.ComponentHTTP),
		started:     time.Now(),
	}

	// Probes and metrics are public
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Activities
	mux.Handle("GET /api/activities", s.protect(s.handleListActivities))
	mux.Handle("POST /api/activities", s.protect(s.handleCreateActivity))
	mux.Handle("GET /api/activities/names", s.protect(s.handleActivityNames))
	mux.Handle("GET /api/activities/{id}", s.protect(s.handleGetActivity))
	mux.Handle("PUT /api/activities/{id}", s.protect(s.handleUpdateActivity))
	mux.Handle("DELETE /api/activities/{id}", s.protect(s.handleDeleteActivity))
	mux.Handle("GET /api/export.csv", s.protect(s.handleExportCSV))

	// Insights
	mux.Handle("GET /api/summary", s.protect(s.handleSummary))
	mux.Handle("GET /api/report", s.protect(s.handleReport))
	mux.Handle("GET /api/series/daily", s.protect(s.handleDailySeries))
	mux.Handle("GET /api/series/distribution", s.protect(s.handleDistribution))
	mux.Handle("GET /api/overview", s.protect(s.handleOverview))
	mux.Handle("GET /api/today", s.protect(s.handleToday))
	mux.Handle("GET /api/dashboard", s.protect(s.handleDashboard))

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = trace.NewMiddleware(s.detector.ExtractClientIP).Middleware(handler)
	handler = log.Middleware(s.logger)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, try again later"})
}
