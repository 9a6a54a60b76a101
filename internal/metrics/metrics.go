// Package metrics provides Prometheus metrics for the mirror proxy.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for request latency; fetches of remote pages can
// take several seconds, so the upper buckets are generous.
var defaultBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// Metrics holds all Prometheus metric collectors for the proxy.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	ResponseBytes *prometheus.HistogramVec

	FetchDuration   *prometheus.HistogramVec
	FetchResponses  *prometheus.CounterVec
	RewriteDuration prometheus.Histogram
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webmirror_proxy_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path_prefix"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webmirror_proxy_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path_prefix"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "webmirror_proxy_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		ResponseBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "webmirror_proxy_http_response_size_bytes",
			Help: "Inbound HTTP response size in bytes. Browse envelopes carry whole rewritten pages, so the range is wide.",
			// 1 KiB to 16 MiB.
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}, []string{"path_prefix"}),

		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webmirror_proxy_fetch_duration_seconds",
			Help:    "Outbound target fetch latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"status_class"}),

		FetchResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webmirror_proxy_fetch_responses_total",
			Help: "Total target fetch outcomes by status class (0xx means no response).",
		}, []string{"status_class"}),

		RewriteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "webmirror_proxy_rewrite_duration_seconds",
			Help:    "HTML rewrite pipeline latency in seconds.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.ResponseBytes,
		m.FetchDuration,
		m.FetchResponses,
		m.RewriteDuration,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// knownPrefixes lists the allowed path label values (bounded cardinality).
var knownPrefixes = []string{"/api/browse", "/healthz", "/proxy/status", "/metrics"}

// NormalizePath returns a bounded path label for Prometheus metrics.
func NormalizePath(path string) string {
	for _, prefix := range knownPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?") {
			return prefix
		}
	}
	return "other"
}

// StatusClass maps an HTTP status code to a bounded label ("2xx", "3xx", ...).
// Zero, meaning no response was obtained, maps to "0xx".
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	case code >= 100:
		return "1xx"
	default:
		return "0xx"
	}
}
