package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments exported alongside both protocol
// surfaces.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	JobCleanupRuns  prometheus.Counter
	JobsDeleted     prometheus.Counter
}

// NewMetrics registers every instrument against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taxiid",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed, by surface and status.",
			},
			[]string{"surface", "status"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "taxiid",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds, by surface.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"surface"},
		),
		JobCleanupRuns: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "taxiid",
				Name:      "job_cleanup_runs_total",
				Help:      "Total number of completed-job retention sweeps.",
			},
		),
		JobsDeleted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "taxiid",
				Name:      "jobs_deleted_total",
				Help:      "Total number of TAXII 2.1 jobs deleted by the retention sweep.",
			},
		),
	}
}

// surfaceFor labels a request path with the protocol surface it belongs to,
// for the RequestsTotal/RequestDuration vectors.
func surfaceFor(path string) string {
	switch {
	case len(path) >= 8 && path[:8] == "/taxii2/":
		return "taxii2"
	case len(path) >= 10 && path[:10] == "/services/":
		return "taxii1x"
	case len(path) >= 12 && path[:12] == "/management/":
		return "management"
	default:
		return "other"
	}
}

// instrument wraps next with per-surface request counters and latency
// histograms.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		surface := surfaceFor(r.URL.Path)
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.RequestsTotal.WithLabelValues(surface, strconv.Itoa(rec.status)).Inc()
		m.RequestDuration.WithLabelValues(surface).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the status code a handler wrote, since
// http.ResponseWriter doesn't expose it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
