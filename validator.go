package authswitch

import (
	"context"

	"github.com/goliatone/go-errors"
)

func allowSwitch(context.Context, *Account, *Attempt) (bool, error) {
	return true, nil
}

func allowUnattributed(context.Context, *Attempt) bool {
	return true
}

// newSwitchValidator returns the validate hook for one registration.
// Attribution happens at most once per attempt: when several registrations
// are active, the first validator to run records the attempting user and
// the others reuse it.
func newSwitchValidator(m *Manager, cbs Callbacks) ValidateHook {
	validate := cbs.ValidateSwitch
	if validate == nil {
		validate = allowSwitch
	}

	noAttemptingUser := cbs.OnNoAttemptingUser
	if noAttemptingUser == nil {
		noAttemptingUser = allowUnattributed
	}

	return func(ctx context.Context, attempt *Attempt) (bool, error) {
		if attempt == nil {
			return false, nil
		}
		if attempt.User == nil || attempt.Type == "" || attempt.MethodName == "" {
			return attempt.Allowed, nil
		}

		attemptingUser, ok := AttemptingUser(ctx)
		if !ok {
			if !noAttemptingUser(ctx, attempt) {
				return false, nil
			}

			var err error
			attemptingUser, err = m.attribute(ctx, attempt)
			if err != nil {
				return false, err
			}
			if attemptingUser == nil {
				return attempt.Allowed, nil
			}
		}

		allowed, err := validate(ctx, attemptingUser, attempt)
		m.metrics.RecordSwitchDecision(attempt.Type, allowed && err == nil && attempt.Allowed)
		return allowed, err
	}
}

// attribute decides whether attempt is a switch and, if so, stores and
// returns the attempting user. A nil account means the attempt is not a
// switch.
func (m *Manager) attribute(ctx context.Context, attempt *Attempt) (*Account, error) {
	if m.identities == nil || m.accounts == nil {
		return nil, nil
	}

	currentID, ok := m.identities.CurrentIdentity(ctx)
	if !ok || currentID == "" || currentID == attempt.User.ID {
		return nil, nil
	}

	current, err := m.accounts.FindAccount(ctx, currentID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			m.logger.Warn("session identity has no account, skipping switch", "identity", currentID)
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve attempting user").
			WithTextCode(TextCodeAccountLookupFailed).
			WithMetadata(map[string]any{"identity": currentID})
	}
	if current == nil {
		return nil, nil
	}

	if current.HasService(attempt.Type) {
		return nil, nil
	}

	if err := SetAttemptingUser(ctx, current); err != nil {
		return nil, err
	}

	m.metrics.RecordSwitchAttempt(attempt.Type)
	m.logger.Debug("attempt attributed as switch", "session", attempt.SessionID, "attempting_user", current.ID, "service", attempt.Type)

	return current, nil
}
