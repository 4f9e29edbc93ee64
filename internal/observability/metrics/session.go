package metrics

import "github.com/prometheus/client_golang/prometheus"

// SessionMetrics tracks session state and navigation guard outcomes.
// A nil *SessionMetrics is valid and records nothing.
type SessionMetrics struct {
	Authenticated  prometheus.Gauge
	GuardDecisions *prometheus.CounterVec
}

// NewSessionMetrics creates and registers session metrics on the given registry.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		Authenticated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "authenticated",
			Help:      "1 when a credential is held, 0 otherwise.",
		}),
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Navigation guard decisions by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.Authenticated, m.GuardDecisions)
	return m
}

// SetAuthenticated records the current session state.
func (m *SessionMetrics) SetAuthenticated(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.Authenticated.Set(1)
		return
	}
	m.Authenticated.Set(0)
}

// ObserveDecision counts one guard decision.
func (m *SessionMetrics) ObserveDecision(outcome string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(outcome).Inc()
}
