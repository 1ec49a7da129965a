package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tempo",
		Name:      "activity_mutations_total",
		Help:      "Activity records created, updated or deleted.",
	}, []string{"op"})
	backupsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tempo",
		Name:      "backups_created_total",
		Help:      "Daily snapshots written.",
	})
	backupsExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tempo",
		Name:      "backups_expired_total",
		Help:      "Snapshots removed by retention.",
	})
	backupFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tempo",
		Name:      "backup_failures_total",
		Help:      "Backup operations that failed and were skipped.",
	}, []string{"op"})
	lastBackupGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tempo",
		Name:      "last_backup_timestamp_seconds",
		Help:      "Unix timestamp of the most recent snapshot written.",
	})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tempo",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "status"})
	rateLimitHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tempo",
		Name:      "rate_limit_hits_total",
		Help:      "Requests rejected by the per-client rate limiter.",
	})
	suspiciousRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tempo",
		Name:      "suspicious_requests_total",
		Help:      "Requests matching a known probing pattern.",
	})
	authFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tempo",
		Name:      "auth_failures_total",
		Help:      "Rejected password checks by surface.",
	}, []string{"surface"})
)

func init() {
	prometheus.MustRegister(
		activityMutations,
		backupsCreated,
		backupsExpired,
		backupFailures,
		lastBackupGauge,
		httpDuration,
		rateLimitHits,
		suspiciousRequests,
		authFailures,
	)
}

// RecordMutation counts a create, update or delete.
func RecordMutation(op string) {
	activityMutations.WithLabelValues(op).Inc()
}

// RecordBackupCreated counts a snapshot and moves the watermark gauge.
func RecordBackupCreated(ts time.Time) {
	backupsCreated.Inc()
	if ts.IsZero() {
		return
	}
	lastBackupGauge.Set(float64(ts.Unix()))
}

func RecordBackupsExpired(n int) {
	if n <= 0 {
		return
	}
	backupsExpired.Add(float64(n))
}

func RecordBackupFailure(op string) {
	backupFailures.WithLabelValues(op).Inc()
}

// ObserveHTTP records one served request.
func ObserveHTTP(route string, status int, elapsed time.Duration) {
	httpDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func RecordRateLimitHit() {
	rateLimitHits.Inc()
}

func RecordSuspiciousRequest() {
	suspiciousRequests.Inc()
}

// RecordAuthFailure counts a wrong or missing password on surface (http or cli).
func RecordAuthFailure(surface string) {
	authFailures.WithLabelValues(surface).Inc()
}
