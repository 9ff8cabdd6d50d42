package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the API's Prometheus collectors. Each instance registers on
// its own registry so tests can build servers independently.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SegmentsTotal   *prometheus.CounterVec
	StoreErrors     prometheus.Counter
}

// NewMetrics creates and registers the collectors, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whogoverns",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "whogoverns",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		SegmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whogoverns",
			Name:      "segments_total",
			Help:      "Power segments produced, by equality key.",
		}, []string{"key"}),
		StoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "whogoverns",
			Name:      "store_errors_total",
			Help:      "Read sessions that failed for reasons other than validation or unknown countries.",
		}),
	}
}
