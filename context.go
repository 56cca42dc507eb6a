package authswitch

import (
	"context"

	"github.com/goliatone/go-auth-switch/invocation"
)

type attemptingUserKey struct{}

// AttemptingUser returns the account that was logged in when the switch
// attempt running in ctx began. It reports false when ctx is not part of a
// switch attempt.
func AttemptingUser(ctx context.Context) (*Account, bool) {
	inv, ok := invocation.From(ctx)
	if !ok {
		return nil, false
	}

	raw, ok := inv.Value(attemptingUserKey{})
	if !ok {
		return nil, false
	}

	user, ok := raw.(*Account)
	return user, ok && user != nil
}

// SetAttemptingUser attributes the attempt running in ctx to user. An
// invocation is attributed at most once.
func SetAttemptingUser(ctx context.Context, user *Account) error {
	inv, ok := invocation.From(ctx)
	if !ok {
		return ErrNoInvocation
	}

	if !inv.SetOnce(attemptingUserKey{}, user) {
		return ErrAttemptingUserSet
	}

	return nil
}
