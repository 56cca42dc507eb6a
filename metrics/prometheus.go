// Package metrics provides a Prometheus implementation of
// authswitch.MetricsReporter.
package metrics

import (
	"github.com/goliatone/go-auth-switch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authswitch"

var _ authswitch.MetricsReporter = (*PrometheusMetrics)(nil)

// PrometheusMetrics counts switch attempts, decisions and outcomes.
type PrometheusMetrics struct {
	attempts  *prometheus.CounterVec
	decisions *prometheus.CounterVec
	outcomes  *prometheus.CounterVec
}

// NewPrometheusMetrics registers the switch counters on reg. A nil reg
// uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "switch_attempts_total",
			Help:      "Total number of login attempts attributed as credential switches",
		}, []string{"service"}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "switch_decisions_total",
			Help:      "Total number of switch validation decisions",
		}, []string{"service", "result"}), // result: allowed, denied
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "switch_outcomes_total",
			Help:      "Total number of finished credential switches",
		}, []string{"service", "result"}), // result: success, failure
	}
}

// RecordSwitchAttempt records an attempt attributed as a switch.
func (m *PrometheusMetrics) RecordSwitchAttempt(service string) {
	m.attempts.WithLabelValues(service).Inc()
}

// RecordSwitchDecision records a ValidateSwitch result.
func (m *PrometheusMetrics) RecordSwitchDecision(service string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	m.decisions.WithLabelValues(service, result).Inc()
}

// RecordSwitchOutcome records a finished switch.
func (m *PrometheusMetrics) RecordSwitchOutcome(service string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.outcomes.WithLabelValues(service, result).Inc()
}
