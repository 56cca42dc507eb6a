package pipeline

import (
	"context"
	"time"

	"github.com/goliatone/go-auth-switch"
	"github.com/goliatone/go-auth-switch/invocation"
)

var (
	_ authswitch.Pipeline       = (*Pipeline)(nil)
	_ authswitch.IdentitySource = (*Pipeline)(nil)
)

type sessionKey struct{}
type identityKey struct{}

// Result describes a successful login.
type Result struct {
	UserID       string
	Type         string
	Token        string
	TokenExpires time.Time
}

// Pipeline runs login attempts on sessions and lets hooks validate and
// observe them.
type Pipeline struct {
	store        Store
	tokens       *TokenService
	passwordCost int
	logger       authswitch.Logger

	validateHooks hookList[authswitch.ValidateHook]
	loginHooks    hookList[authswitch.OutcomeHook]
	failureHooks  hookList[authswitch.OutcomeHook]
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger authswitch.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTokenService replaces the token service built from Config.
func WithTokenService(ts *TokenService) Option {
	return func(p *Pipeline) {
		if ts != nil {
			p.tokens = ts
		}
	}
}

// New creates a pipeline backed by store.
func New(store Store, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:        store,
		passwordCost: cfg.GetPasswordCost(),
		logger:       authswitch.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	if p.tokens == nil {
		p.tokens = NewTokenService(
			[]byte(cfg.GetSigningKey()),
			cfg.GetTokenExpiration(),
			cfg.GetIssuer(),
			cfg.GetAudience(),
			p.logger,
		)
	}

	return p
}

// ValidateLoginAttempt registers a hook run before each attempt is
// finalized. Hooks run in registration order and all of them run.
func (p *Pipeline) ValidateLoginAttempt(hook authswitch.ValidateHook) authswitch.Stopper {
	return p.validateHooks.add(hook)
}

// OnLogin registers a hook run after each successful attempt.
func (p *Pipeline) OnLogin(hook authswitch.OutcomeHook) authswitch.Stopper {
	return p.loginHooks.add(hook)
}

// OnLoginFailure registers a hook run after each failed attempt.
func (p *Pipeline) OnLoginFailure(hook authswitch.OutcomeHook) authswitch.Stopper {
	return p.failureHooks.add(hook)
}

// HookCount returns the number of registered validate, login and failure
// hooks.
func (p *Pipeline) HookCount() (validate, login, failure int) {
	return p.validateHooks.count(), p.loginHooks.count(), p.failureHooks.count()
}

// CurrentIdentity returns the account sess was logged in as when the
// attempt running in ctx started.
func (p *Pipeline) CurrentIdentity(ctx context.Context) (string, bool) {
	inv, ok := invocation.From(ctx)
	if !ok {
		return "", false
	}
	raw, ok := inv.Value(identityKey{})
	if !ok {
		return "", false
	}
	id, ok := raw.(string)
	return id, ok && id != ""
}

// SessionFromContext returns the session of the attempt running in ctx.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	inv, ok := invocation.From(ctx)
	if !ok {
		return nil, false
	}
	raw, ok := inv.Value(sessionKey{})
	if !ok {
		return nil, false
	}
	sess, ok := raw.(*Session)
	return sess, ok && sess != nil
}

// Login runs one login attempt on sess. Every call gets its own
// invocation, including calls made from inside another attempt's hooks.
func (p *Pipeline) Login(ctx context.Context, sess *Session, req Request) (*Result, error) {
	if sess == nil {
		return nil, ErrNoSession
	}

	ctx = invocation.Begin(ctx)
	inv := invocation.MustFrom(ctx)
	inv.SetOnce(sessionKey{}, sess)
	if userID, ok := sess.UserID(); ok {
		inv.SetOnce(identityKey{}, userID)
	}

	attempt := &authswitch.Attempt{
		MethodName: req.methodName(),
		SessionID:  sess.ID(),
	}

	user, service, err := p.runMethod(ctx, req)
	attempt.User = user
	attempt.Type = service
	attempt.Err = err
	attempt.Allowed = err == nil && user != nil

	p.validate(ctx, attempt)

	var result *Result
	if attempt.Allowed {
		token, expires, err := p.tokens.Generate(user.ID, sess.ID())
		if err != nil {
			attempt.Allowed = false
			attempt.Err = err
		} else {
			sess.setUser(user.ID, token)
			p.grantResume(ctx, user, sess, expires)
			result = &Result{
				UserID:       user.ID,
				Type:         service,
				Token:        token,
				TokenExpires: expires,
			}
		}
	}

	if !attempt.Allowed {
		if attempt.Err == nil {
			attempt.Err = ErrLoginForbidden
		}
		p.notify(ctx, "login failure", p.failureHooks.snapshot(), attempt)
		p.logger.Debug("login attempt failed", "service", attempt.Type, "session", sess.ID(), "error", attempt.Err)
		return nil, attempt.Err
	}

	p.notify(ctx, "login", p.loginHooks.snapshot(), attempt)
	p.logger.Debug("login attempt succeeded", "service", attempt.Type, "session", sess.ID(), "user_id", user.ID)

	return result, nil
}

// grantResume records the resume credential an account holds once it
// has logged in, so token logins are never a new credential method.
func (p *Pipeline) grantResume(ctx context.Context, user *authswitch.Account, sess *Session, expires time.Time) {
	if user.HasService(ServiceResume) {
		return
	}

	cred := &authswitch.Credential{
		Service:    ServiceResume,
		Identifier: user.ID,
		Data:       map[string]any{"session_id": sess.ID(), "expires_at": expires.UTC().Format(time.RFC3339)},
		CreatedAt:  time.Now(),
	}
	if err := p.store.AddCredential(ctx, user.ID, cred); err != nil {
		p.logger.Warn("failed to record resume credential", "user_id", user.ID, "error", err)
		return
	}

	if user.Services == nil {
		user.Services = map[string]*authswitch.Credential{}
	}
	user.Services[ServiceResume] = cred
}

func (p *Pipeline) validate(ctx context.Context, attempt *authswitch.Attempt) {
	for _, hook := range p.validateHooks.snapshot() {
		ok, err := hook(ctx, attempt)
		if err != nil {
			attempt.Allowed = false
			attempt.Err = err
			continue
		}
		if !ok {
			attempt.Allowed = false
			if attempt.Err == nil {
				attempt.Err = ErrLoginForbidden
			}
		}
	}
}

// notify runs observer hooks. Their errors cannot change the outcome and
// are only logged.
func (p *Pipeline) notify(ctx context.Context, name string, hooks []authswitch.OutcomeHook, attempt *authswitch.Attempt) {
	for _, hook := range hooks {
		if err := hook(ctx, attempt); err != nil {
			p.logger.Error(name+" hook error", "session", attempt.SessionID, "error", err)
		}
	}
}
