package authswitch

import "github.com/goliatone/go-errors"

const (
	TextCodeNoInvocation        = "switch_no_invocation"
	TextCodeAttemptingUserSet   = "switch_attempting_user_set"
	TextCodeAccountNotFound     = "switch_account_not_found"
	TextCodeSwitchNotPermitted  = "switch_not_permitted"
	TextCodeAccountLookupFailed = "switch_account_lookup_failed"
)

// ErrNoInvocation is returned when a hook runs on a context that was not
// created with invocation.Begin.
var ErrNoInvocation = errors.New("context has no login invocation", errors.CategoryInternal).
	WithTextCode(TextCodeNoInvocation).
	WithCode(errors.CodeInternal)

// ErrAttemptingUserSet is returned when the attempting user of an
// invocation is written twice.
var ErrAttemptingUserSet = errors.New("attempting user already set for invocation", errors.CategoryConflict).
	WithTextCode(TextCodeAttemptingUserSet).
	WithCode(errors.CodeConflict)

// ErrAccountNotFound is returned by Accounts implementations when an
// identity has no account.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrSwitchNotPermitted is a ready made denial reason for ValidateSwitch
// callbacks that want to refuse a switch with an error.
var ErrSwitchNotPermitted = errors.New("credential switch not permitted", errors.CategoryAuth).
	WithTextCode(TextCodeSwitchNotPermitted).
	WithCode(errors.CodeForbidden)
