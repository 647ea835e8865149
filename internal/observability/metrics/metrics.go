package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "personnelapi_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "personnelapi_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "personnelapi_login_attempts_total",
		Help: "Count of login attempts by result",
	}, []string{"result"})

	tokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "personnelapi_tokens_issued_total",
		Help: "Count of bearer tokens issued",
	})

	tokensRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "personnelapi_tokens_revoked_total",
		Help: "Count of bearer tokens revoked",
	})

	tokensPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "personnelapi_tokens_purged_total",
		Help: "Count of expired tokens removed by the cleanup worker",
	})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLogin increments the login attempt counter for a result.
func ObserveLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

// ObserveTokenIssued increments the issued token counter.
func ObserveTokenIssued() {
	tokensIssued.Inc()
}

// ObserveTokenRevoked increments the revoked token counter.
func ObserveTokenRevoked() {
	tokensRevoked.Inc()
}

// ObserveTokensPurged adds the cleanup worker's purge count.
func ObserveTokensPurged(count int) {
	tokensPurged.Add(float64(count))
}

// statusWriter captures the response status for labeling.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// HTTPMiddleware records request count and duration per method, path and
// status.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		ObserveHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(sw.status), time.Since(start))
	})
}
