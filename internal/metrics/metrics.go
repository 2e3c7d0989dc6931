package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astroview_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astroview_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	horizonsRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astroview_horizons_requests_total",
			Help: "Remote Horizons queries by table kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astroview_stream_connections_total",
			Help: "Sky stream connect/disconnect events.",
		},
		[]string{"event"},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astroview_stream_errors_total",
			Help: "Sky stream errors by cause.",
		},
		[]string{"cause"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "astroview_streams_active",
			Help: "Currently connected sky stream clients.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astroview_stream_messages_total",
			Help: "Total SSE data messages sent to stream clients.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astroview_stream_bytes_total",
			Help: "Total bytes written to stream clients.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(horizonsRequestsTotal)
	prometheus.MustRegister(streamConnectionsTotal)
	prometheus.MustRegister(streamErrorsTotal)
	prometheus.MustRegister(streamsActive)
	prometheus.MustRegister(streamMessagesTotal)
	prometheus.MustRegister(streamBytesTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncHorizonsRequest records one remote query outcome.
func IncHorizonsRequest(kind, outcome string) {
	horizonsRequestsTotal.WithLabelValues(kind, outcome).Inc()
}

// IncStreamConnections records a stream connect or disconnect event.
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamErrors records a stream error by cause.
func IncStreamErrors(cause string) {
	streamErrorsTotal.WithLabelValues(cause).Inc()
}

// IncStreamsActive increments the active stream gauge.
func IncStreamsActive() {
	streamsActive.Inc()
}

// DecStreamsActive decrements the active stream gauge.
func DecStreamsActive() {
	streamsActive.Dec()
}

// IncStreamMessages records one SSE data message sent.
func IncStreamMessages() {
	streamMessagesTotal.Inc()
}

// AddStreamBytes records bytes written to a stream client.
func AddStreamBytes(n int64) {
	streamBytesTotal.Add(float64(n))
}

// knownRoutes are the exact paths served by the API.
var knownRoutes = map[string]bool{
	"/":                      true,
	"/healthz":               true,
	"/readyz":                true,
	"/metrics":               true,
	"/api/v1/skyview":        true,
	"/api/v1/stream/skyview": true,
}

// normalizeRoute collapses parameterized paths to one label each and
// unknown paths (bots, scanners) to "other" to bound metric cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/positions/") {
		return "/api/v1/positions/{target}"
	}
	if strings.HasPrefix(path, "/api/v1/orbits/") {
		return "/api/v1/orbits/{target}"
	}
	if strings.HasPrefix(path, "/static/") {
		return "/static/"
	}
	return "other"
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

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		path := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}
