package authswitch

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger takes a constant message followed by key/value pairs. A
// glog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Credential binds an account to one login service (password, anonymous,
// an OAuth provider, ...).
type Credential struct {
	ID         string         `json:"id"`
	Service    string         `json:"service"`
	Identifier string         `json:"identifier,omitempty"`
	Secret     string         `json:"-"`
	Data       map[string]any `json:"data,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Account is the full record of a principal, keyed by credential service.
type Account struct {
	ID        string                 `json:"id"`
	Username  string                 `json:"username,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Services  map[string]*Credential `json:"services,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// HasService reports whether the account already holds credentials for
// the given service.
func (a *Account) HasService(service string) bool {
	if a == nil || a.Services == nil {
		return false
	}
	cred, ok := a.Services[service]
	return ok && cred != nil
}

// Attempt describes one login attempt as seen by the hooks of a
// Pipeline. Hooks must treat it as read-only; the pipeline owns Allowed
// and Err.
type Attempt struct {
	// Type is the credential service used (password, anonymous, resume...).
	Type string
	// MethodName is the login call that produced the attempt
	// (login, createUser...).
	MethodName string
	Allowed    bool
	// User is the account being logged into, nil when the method could
	// not resolve one.
	User      *Account
	SessionID string
	// Err is the denial reason once the attempt has been refused.
	Err error
}

// Stopper detaches something previously registered. Stop must be safe to
// call more than once.
type Stopper interface {
	Stop()
}

// StopperFunc adapts a function to the Stopper interface.
type StopperFunc func()

// Stop implements Stopper.
func (f StopperFunc) Stop() {
	if f != nil {
		f()
	}
}

// ValidateHook runs before an attempt is finalized. Returning false or
// an error denies the attempt.
type ValidateHook func(ctx context.Context, attempt *Attempt) (bool, error)

// OutcomeHook observes an attempt after its outcome is final.
type OutcomeHook func(ctx context.Context, attempt *Attempt) error

// Pipeline is the login attempt machinery the switch hooks plug into.
// Every hook of one attempt must receive the same context, created fresh
// for that attempt with invocation.Begin.
type Pipeline interface {
	ValidateLoginAttempt(hook ValidateHook) Stopper
	OnLogin(hook OutcomeHook) Stopper
	OnLoginFailure(hook OutcomeHook) Stopper
}

// IdentitySource returns the identity the session held before the
// attempt running in ctx started.
type IdentitySource interface {
	CurrentIdentity(ctx context.Context) (string, bool)
}

// Accounts resolves an identity to its full record. Implementations
// return ErrAccountNotFound when there is no such account.
type Accounts interface {
	FindAccount(ctx context.Context, id string) (*Account, error)
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] AUTHSWITCH " + line(msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] AUTHSWITCH " + line(msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] AUTHSWITCH " + line(msg, args))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] AUTHSWITCH " + line(msg, args))
}

// DefaultLogger returns the logger used when none is configured.
func DefaultLogger() Logger {
	return defLogger{}
}

// line renders msg followed by its key/value pairs as key=value. A
// trailing key without a value is printed under !BADKEY.
func line(msg string, args []any) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(msg, "\n"))
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fmt.Fprintf(&b, " !BADKEY=%v", args[i])
			break
		}
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	b.WriteByte('\n')
	return b.String()
}
