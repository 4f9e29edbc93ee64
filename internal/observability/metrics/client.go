package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics tracks outbound API calls made by the request pipeline.
// A nil *ClientMetrics is valid and records nothing.
type ClientMetrics struct {
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	SessionInvalidations prometheus.Counter
}

// NewClientMetrics creates and registers client metrics on the given registry.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests by method and outcome kind.",
		}, []string{"method", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		SessionInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "invalidations_total",
			Help:      "Sessions cleared because the backend rejected the credential.",
		}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.SessionInvalidations)
	return m
}

// ObserveRequest records one completed API call. outcome is ResultSuccess or an error kind.
func (m *ClientMetrics) ObserveRequest(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, outcome).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// IncSessionInvalidated counts one 401-driven session clear.
func (m *ClientMetrics) IncSessionInvalidated() {
	if m == nil {
		return
	}
	m.SessionInvalidations.Inc()
}
