// Package metrics holds the Prometheus collectors shared by the HTTP layer,
// the record service and the weather enricher.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricHTTPRequestsTotal   = "http_requests_total"
	MetricHTTPRequestDuration = "http_request_duration_seconds"
	MetricRecordOperations    = "record_operations_total"
	MetricWeatherFallbacks    = "weather_fallbacks_total"
)

// Metrics contains all collectors. Safe for concurrent use.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	recordOperations    *prometheus.CounterVec
	weatherFallbacks    prometheus.Counter
}

// New creates collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1.0, 2.0},
			},
			[]string{"method", "path", "status"},
		),
		recordOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRecordOperations,
				Help: "Observation record operations by kind and outcome",
			},
			[]string{"operation", "outcome"},
		),
		weatherFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricWeatherFallbacks,
				Help: "Weather lookups that degraded to default data",
			},
		),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.recordOperations,
		m.weatherFallbacks,
	)
	return m
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"method": method, "path": path, "status": status}
	m.httpRequestsTotal.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(seconds)
}

// IncRecordOperation counts create/update/list/get outcomes.
func (m *Metrics) IncRecordOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.recordOperations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncWeatherFallback() {
	if m == nil {
		return
	}
	m.weatherFallbacks.Inc()
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer is used by tests to read collected values.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
