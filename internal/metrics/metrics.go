// Package metrics exposes Prometheus collectors for backend calls and board loads.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded for backend calls.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_error"
)

// Metrics groups the collectors the board server records into.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	staleLoads  prometheus.Counter
	sessions    prometheus.Gauge
}

// New builds a Metrics backed by its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "activity_board",
			Name:      "api_requests_total",
			Help:      "Backend activities API calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "activity_board",
			Name:      "api_request_duration_seconds",
			Help:      "Backend activities API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		staleLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "activity_board",
			Name:      "stale_loads_discarded_total",
			Help:      "Activity loads whose response arrived after a newer load was issued.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "activity_board",
			Name:      "sessions",
			Help:      "Boards currently held in memory.",
		}),
	}
	m.registry.MustRegister(
		m.apiRequests,
		m.apiLatency,
		m.staleLoads,
		m.sessions,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveAPI records one backend call. A nil Metrics is a no-op.
func (m *Metrics) ObserveAPI(op, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(op, outcome).Inc()
	m.apiLatency.WithLabelValues(op).Observe(took.Seconds())
}

// StaleLoad records a discarded load response.
func (m *Metrics) StaleLoad() {
	if m == nil {
		return
	}
	m.staleLoads.Inc()
}

// SetSessions records the number of live boards.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
