package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
		},
		[]string{"method", "endpoint"},
	)

	// Database metrics
	dbQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// Contact pipeline metrics
	contactSubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Total number of accepted contact form submissions",
		},
	)

	contactRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_rejections_total",
			Help: "Contact form submissions rejected, by internal cause",
		},
		[]string{"cause"},
	)

	contactRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_rate_limited_total",
			Help: "Contact form requests rejected by the rate limiter",
		},
	)

	rateLimitFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ratelimit_fallback_total",
			Help: "Rate limit checks answered by the process-local fallback after a shared store error",
		},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_notifications_total",
			Help: "Owner notification attempts, by channel and result",
		},
		[]string{"channel", "result"},
	)

	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of staff authentication attempts",
		},
		[]string{"status"}, // success, failure
	)
)

// Handler exposes the default registry for scraping
func Handler() http.Handler {
	return promhttp.Handler()
}

// UnmatchedEndpoint labels requests that match no known route.
const UnmatchedEndpoint = "unmatched"

// PrometheusMiddleware creates a middleware that records Prometheus metrics.
// endpoint maps a request to a bounded label such as its route pattern; a
// nil endpoint labels every request UnmatchedEndpoint.
func PrometheusMiddleware(next http.Handler, endpoint func(*http.Request) string) http.Handler {
	if endpoint == nil {
		endpoint = func(*http.Request) string { return UnmatchedEndpoint }
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip metrics endpoint itself
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		label := endpoint(r)

		if r.ContentLength > 0 {
			httpRequestSize.WithLabelValues(r.Method, label).Observe(float64(r.ContentLength))
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, label, statusCode).Inc()
		httpRequestDuration.WithLabelValues(r.Method, label, statusCode).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecordContactSubmission records an accepted contact form submission
func RecordContactSubmission() {
	contactSubmissionsTotal.Inc()
}

// RecordContactRejection records a rejected submission by its internal cause
func RecordContactRejection(cause string) {
	contactRejectionsTotal.WithLabelValues(cause).Inc()
}

// RecordRateLimited records a request rejected by the rate limiter
func RecordRateLimited() {
	contactRateLimitedTotal.Inc()
}

// RecordRateLimitFallback records a check served by the local fallback store
func RecordRateLimitFallback() {
	rateLimitFallbackTotal.Inc()
}

// RecordNotification records an owner notification attempt
func RecordNotification(channel string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	notificationsTotal.WithLabelValues(channel, result).Inc()
}

// RecordAuthAttempt records a staff authentication attempt
func RecordAuthAttempt(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	authAttemptsTotal.WithLabelValues(status).Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	dbQueriesTotal.WithLabelValues(operation, status).Inc()
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
