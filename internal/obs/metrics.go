package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine metrics.
var (
	peekRequestsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "peek_requests_created_total",
		Help: "Peek requests accepted by the policy evaluator.",
	})

	peekRequestsDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peek_requests_denied_total",
			Help: "Peek request creations denied by policy.",
		},
		[]string{"reason"},
	)

	peekResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peek_request_resolutions_total",
			Help: "Terminal peek request outcomes.",
		},
		[]string{"outcome"},
	)

	peekActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "peek_active_sessions",
		Help: "Currently active peek sessions.",
	})
)

// HTTP metrics.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		peekRequestsCreated, peekRequestsDenied, peekResolutions, peekActiveSessions,
		httpInFlight, httpRequestsTotal, httpRequestDuration,
	)
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RequestCreated() {
	peekRequestsCreated.Inc()
}

func RequestDenied(reason string) {
	peekRequestsDenied.WithLabelValues(reason).Inc()
}

func RequestResolved(outcome string) {
	peekResolutions.WithLabelValues(outcome).Inc()
}

func SetActiveSessions(n int) {
	peekActiveSessions.Set(float64(n))
}

// Instrument wraps a handler with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpInFlight.Dec()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
