package authswitch

// MetricsReporter receives counters about credential switches. The
// metrics package provides a Prometheus implementation.
type MetricsReporter interface {
	// RecordSwitchAttempt is called once per attempt attributed as a switch.
	RecordSwitchAttempt(service string)
	// RecordSwitchDecision is called with the result of ValidateSwitch.
	RecordSwitchDecision(service string, allowed bool)
	// RecordSwitchOutcome is called after OnSwitch or OnSwitchFailure ran.
	RecordSwitchOutcome(service string, success bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordSwitchAttempt(string)        {}
func (noopMetrics) RecordSwitchDecision(string, bool) {}
func (noopMetrics) RecordSwitchOutcome(string, bool)  {}

func normalizeMetrics(m MetricsReporter) MetricsReporter {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
