package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AuthzMetrics counts policy decisions.
type AuthzMetrics struct {
	decisions *prometheus.CounterVec
}

// NewAuthzMetrics registers the decision counter on the provided registerer.
func NewAuthzMetrics(reg prometheus.Registerer) *AuthzMetrics {
	if reg == nil {
		return &AuthzMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_decisions_total",
		Help: "Authorization decisions by entity, action and outcome.",
	}, []string{"entity", "action", "outcome"})
	reg.MustRegister(decisions)
	return &AuthzMetrics{decisions: decisions}
}

// ObserveDecision records a single allow, deny or error outcome.
func (m *AuthzMetrics) ObserveDecision(entity, action, outcome string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(entity), normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
