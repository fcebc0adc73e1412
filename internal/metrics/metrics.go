// Package metrics provides Prometheus instrumentation for the Lumenguard service.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lumenguard",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lumenguard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// AnalysesTotal counts completed analyses by resulting risk level.
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lumenguard",
			Name:      "analyses_total",
			Help:      "Total account analyses completed, by risk level.",
		},
		[]string{"level"},
	)

	// AnalysisDuration observes end-to-end analysis latency.
	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lumenguard",
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end account analysis duration in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	})

	// StageDuration observes per-stage pipeline latency.
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lumenguard",
			Name:      "analysis_stage_duration_seconds",
			Help:      "Duration of individual pipeline stages in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// ThreatsDetectedTotal counts threat findings by detector name.
	ThreatsDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lumenguard",
			Name:      "threats_detected_total",
			Help:      "Total threat findings emitted, by detector name.",
		},
		[]string{"name"},
	)

	// EnrichmentFailuresTotal counts soft-failed enrichment lookups by source.
	EnrichmentFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lumenguard",
			Name:      "enrichment_failures_total",
			Help:      "Total reputation/domain enrichment lookups that soft-failed.",
		},
		[]string{"source"},
	)

	// HorizonRequestsTotal counts upstream ledger API requests by endpoint and outcome.
	HorizonRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lumenguard",
			Name:      "horizon_requests_total",
			Help:      "Total Horizon API requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	// ActiveWebSocketClients tracks connected WebSocket feed clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lumenguard",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AnalysesTotal,
		AnalysisDuration,
		StageDuration,
		ThreatsDetectedTotal,
		EnrichmentFailuresTotal,
		HorizonRequestsTotal,
		ActiveWebSocketClients,
	)
}

// ObserveStage returns a done func that records the elapsed stage duration.
// Usage: defer metrics.ObserveStage("collect")()
func ObserveStage(stage string) func() {
	timer := prometheus.NewTimer(StageDuration.WithLabelValues(stage))
	return func() { timer.ObserveDuration() }
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
