package authswitch

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSwitchSuccess ActivityEventType = "auth.switch.success"
	ActivityEventSwitchFailure ActivityEventType = "auth.switch.failure"
)

// ActivityEvent captures audit-friendly information about a credential
// switch.
type ActivityEvent struct {
	EventType ActivityEventType
	// AttemptingUserID is the account that held the session before the switch.
	AttemptingUserID string
	// AttemptedUserID is the account the attempt tried to log into.
	AttemptedUserID string
	Service         string
	SessionID       string
	Metadata        map[string]any
	OccurredAt      time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

func newSwitchEvent(eventType ActivityEventType, attemptingUser *Account, attempt *Attempt) ActivityEvent {
	event := ActivityEvent{
		EventType:  eventType,
		Service:    attempt.Type,
		SessionID:  attempt.SessionID,
		Metadata:   map[string]any{"method": attempt.MethodName},
		OccurredAt: time.Now(),
	}

	if attemptingUser != nil {
		event.AttemptingUserID = attemptingUser.ID
	}
	if attempt.User != nil {
		event.AttemptedUserID = attempt.User.ID
	}
	if attempt.Err != nil {
		event.Metadata["error"] = attempt.Err.Error()
	}

	return event
}
