// Package metrics holds the Prometheus collectors shared by the request
// pipeline and the saga coordinator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. Every field is safe to use on a nil
// *Metrics receiver through the helper methods below.
type Metrics struct {
	Registry *prometheus.Registry

	Requests             *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	SagaFailures         *prometheus.CounterVec
	Compensations        *prometheus.CounterVec
	CompensationFailures *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ttt_requests_total",
				Help: "Requests handled by the pipeline, by method and response code.",
			},
			[]string{"method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ttt_request_duration_seconds",
				Help:    "Pipeline execution time in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		SagaFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ttt_saga_failures_total",
				Help: "Saga operations that failed, by classified error title.",
			},
			[]string{"title"},
		),
		Compensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ttt_compensations_total",
				Help: "Compensations invoked, by operation label.",
			},
			[]string{"operation"},
		),
		CompensationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ttt_compensation_failures_total",
				Help: "Compensations that failed and left the stores inconsistent, by operation label.",
			},
			[]string{"operation"},
		),
	}

	m.Registry.MustRegister(
		m.Requests, m.RequestDuration,
		m.SagaFailures, m.Compensations, m.CompensationFailures,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, code string, seconds float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, code).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(seconds)
}

func (m *Metrics) SagaFailed(title string) {
	if m == nil {
		return
	}
	m.SagaFailures.WithLabelValues(title).Inc()
}

func (m *Metrics) Compensated(operation string, err error) {
	if m == nil {
		return
	}
	m.Compensations.WithLabelValues(operation).Inc()
	if err != nil {
		m.CompensationFailures.WithLabelValues(operation).Inc()
	}
}
