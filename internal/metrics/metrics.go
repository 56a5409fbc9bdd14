package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssa_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ssa_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	classificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssa_classifications_total",
			Help: "Total classifications by predicted class.",
		},
		[]string{"class"},
	)

	propagationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ssa_propagation_failures_total",
			Help: "SGP4 propagation failures (fell back to two-body altitude).",
		},
	)

	catalogFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ssa_catalog_fetches_total",
			Help: "Catalog feed fetch attempts by result (ok, error).",
		},
		[]string{"result"},
	)

	catalogStaleServesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ssa_catalog_stale_serves_total",
			Help: "Listings served from an expired snapshot after a fetch failure.",
		},
	)

	catalogSnapshotAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ssa_catalog_snapshot_age_seconds",
			Help: "Age of the persisted catalog snapshot in seconds.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		classificationsTotal,
		propagationFailuresTotal,
		catalogFetchesTotal,
		catalogStaleServesTotal,
		catalogSnapshotAge,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncClassification records one classification outcome.
func IncClassification(class string) {
	classificationsTotal.WithLabelValues(class).Inc()
}

// IncPropagationFailure records one SGP4 failure.
func IncPropagationFailure() {
	propagationFailuresTotal.Inc()
}

// IncCatalogFetch records a catalog fetch attempt.
func IncCatalogFetch(result string) {
	catalogFetchesTotal.WithLabelValues(result).Inc()
}

// IncCatalogStaleServe records a stale-snapshot fallback.
func IncCatalogStaleServe() {
	catalogStaleServesTotal.Inc()
}

// SetCatalogSnapshotAge updates the snapshot age gauge.
func SetCatalogSnapshotAge(seconds float64) {
	catalogSnapshotAge.Set(seconds)
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(r.URL.Path, r.Method).Observe(duration)
	})
}
