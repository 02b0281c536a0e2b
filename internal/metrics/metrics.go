// Package metrics holds the Prometheus collectors for ndr.
//
// HTTP request metrics are recorded by the REST API middleware; tree
// mutation counters are fed by the metrics extension, which receives every
// committed tree event. Both share one registry so a single /metrics
// endpoint exposes them together.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ndr"

// Metrics is a set of collectors bound to one registry.
type Metrics struct {
	Registry *prometheus.Registry

	// RequestsTotal counts HTTP requests by method, route pattern and status.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration observes HTTP latency by method and route pattern.
	RequestDuration *prometheus.HistogramVec
	// EventsTotal counts committed tree events by type ("node:create", ...).
	EventsTotal *prometheus.CounterVec
	// EventHandlerErrors counts extension handler failures by extension.
	EventHandlerErrors *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		EventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tree",
				Name:      "events_total",
				Help:      "Total number of committed tree mutations by event type",
			},
			[]string{"event"},
		),
		EventHandlerErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tree",
				Name:      "event_handler_errors_total",
				Help:      "Total number of extension event handler failures",
			},
			[]string{"extension"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Default is the process-wide set used by "ndr serve --http" and the
// metrics extension.
var Default = New()
