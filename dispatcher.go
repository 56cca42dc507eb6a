package authswitch

import "context"

func newSuccessHook(m *Manager, onSwitch SwitchOutcomeFunc) OutcomeHook {
	return func(ctx context.Context, attempt *Attempt) error {
		return m.dispatch(ctx, attempt, onSwitch, true)
	}
}

func newFailureHook(m *Manager, onSwitchFailure SwitchOutcomeFunc) OutcomeHook {
	return func(ctx context.Context, attempt *Attempt) error {
		return m.dispatch(ctx, attempt, onSwitchFailure, false)
	}
}

// dispatch hands a finished attempt to cb when the attempt was attributed
// as a switch. Callback errors are returned untouched so the pipeline can
// report them.
func (m *Manager) dispatch(ctx context.Context, attempt *Attempt, cb SwitchOutcomeFunc, success bool) error {
	if cb == nil || attempt == nil {
		return nil
	}

	attemptingUser, ok := AttemptingUser(ctx)
	if !ok {
		return nil
	}

	err := cb(ctx, attemptingUser, attempt)

	m.metrics.RecordSwitchOutcome(attempt.Type, success)

	eventType := ActivityEventSwitchFailure
	if success {
		eventType = ActivityEventSwitchSuccess
	}
	event := newSwitchEvent(eventType, attemptingUser, attempt)
	if err != nil {
		event.Metadata["callback_error"] = err.Error()
	}
	if sinkErr := m.activitySink.Record(ctx, event); sinkErr != nil {
		m.logger.Warn("switch activity sink record error", "error", sinkErr)
	}

	return err
}
