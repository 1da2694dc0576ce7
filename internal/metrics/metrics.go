// Package metrics provides Prometheus metrics for stack-digest
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion metrics
	IngestItemsTotal     *prometheus.CounterVec
	IngestPagesTotal     *prometheus.CounterVec
	IngestRunsTotal      *prometheus.CounterVec
	UpstreamRetriesTotal prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all metrics on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.IngestItemsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackdigest_ingest_items_total",
			Help: "Total number of ingested questions by result",
		},
		[]string{"status"},
	)

	m.IngestPagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackdigest_ingest_pages_total",
			Help: "Total number of question pages requested by result",
		},
		[]string{"status"},
	)

	m.IngestRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackdigest_ingest_runs_total",
			Help: "Total number of ingestion runs by final status",
		},
		[]string{"status"},
	)

	m.UpstreamRetriesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "stackdigest_upstream_retries_total",
			Help: "Total number of backoff waits after upstream throttling",
		},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackdigest_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stackdigest_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordItem records the outcome of one ingested question
func (m *Metrics) RecordItem(status string) {
	if m == nil {
		return
	}
	m.IngestItemsTotal.WithLabelValues(status).Inc()
}

// RecordPage records the outcome of one page request
func (m *Metrics) RecordPage(status string) {
	if m == nil {
		return
	}
	m.IngestPagesTotal.WithLabelValues(status).Inc()
}

// RecordRun records the final status of an ingestion run
func (m *Metrics) RecordRun(status string) {
	if m == nil {
		return
	}
	m.IngestRunsTotal.WithLabelValues(status).Inc()
}

// RecordRetry records one backoff wait
func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.UpstreamRetriesTotal.Inc()
}

// RecordHTTPRequest records a served request
func (m *Metrics) RecordHTTPRequest(route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
