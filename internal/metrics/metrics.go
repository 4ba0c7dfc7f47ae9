// Package metrics holds the Prometheus collectors of the plant service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Identification outcomes recorded by ObserveIdentification.
const (
	OutcomeMatched = "matched"
	OutcomeDefault = "default"
	OutcomeFailed  = "failed"
)

// PlantMetrics groups the counters and histograms of the API.  It is a
// prometheus.Collector so it can be registered in one call.
type PlantMetrics struct {
	registry *prometheus.Registry

	externalCalls    *prometheus.CounterVec
	externalDuration *prometheus.HistogramVec
	identifications  *prometheus.CounterVec
	careTermsTried   prometheus.Histogram
	identifyDuration prometheus.Histogram
	eventsPublished  *prometheus.CounterVec

	collectors []prometheus.Collector
}

// New creates the collectors and registers them in registry.
func New(registry *prometheus.Registry) (*PlantMetrics, error) {
	m := &PlantMetrics{registry: registry}
	m.init()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// NewWithDefaultRegistry uses a fresh registry that also carries the Go
// runtime and process collectors.
func NewWithDefaultRegistry() (*PlantMetrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return New(reg)
}

func (m *PlantMetrics) init() {
	m.externalCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floradex_external_calls_total",
			Help: "Outbound API calls by api, operation and status",
		},
		[]string{"api", "op", "status"},
	)
	m.externalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floradex_external_call_duration_seconds",
			Help:    "Latency of outbound API calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		[]string{"api", "op"},
	)
	m.identifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floradex_identifications_total",
			Help: "Identification requests by outcome",
		},
		[]string{"outcome"},
	)
	m.careTermsTried = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "floradex_care_terms_tried",
			Help:    "Care lookups issued per identification",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		},
	)
	m.identifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "floradex_identification_duration_seconds",
			Help:    "End to end duration of the identification pipeline",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
	m.eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floradex_events_published_total",
			Help: "Domain events handed to the broker",
		},
		[]string{"queue", "status"},
	)

	m.collectors = []prometheus.Collector{
		m.externalCalls,
		m.externalDuration,
		m.identifications,
		m.careTermsTried,
		m.identifyDuration,
		m.eventsPublished,
	}
}

// Describe implements prometheus.Collector.
func (m *PlantMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *PlantMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// ObserveExternalCall records one outbound call.  status is the HTTP
// status code as text, or "error" for transport failures.
func (m *PlantMetrics) ObserveExternalCall(api, op, status string, elapsed time.Duration) {
	m.externalCalls.WithLabelValues(api, op, status).Inc()
	m.externalDuration.WithLabelValues(api, op).Observe(elapsed.Seconds())
}

// ObserveIdentification records the outcome of one pipeline run.
func (m *PlantMetrics) ObserveIdentification(outcome string, termsTried int, elapsed time.Duration) {
	m.identifications.WithLabelValues(outcome).Inc()
	if outcome != OutcomeFailed {
		m.careTermsTried.Observe(float64(termsTried))
	}
	m.identifyDuration.Observe(elapsed.Seconds())
}

// ObserveEvent records a publish attempt on queue.
func (m *PlantMetrics) ObserveEvent(queue string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.eventsPublished.WithLabelValues(queue, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PlantMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
