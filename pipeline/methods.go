package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-auth-switch"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Login call names.
const (
	MethodLogin      = "login"
	MethodCreateUser = "createUser"
)

// Credential services produced by the built in login methods.
const (
	ServiceAnonymous = "anonymous"
	ServicePassword  = "password"
	ServiceResume    = "resume"
)

// Request is the payload of one login call.
type Request struct {
	// Method is MethodLogin (default) or MethodCreateUser.
	Method    string
	Anonymous bool
	Email     string
	Password  string
	// Token resumes a previous login.
	Token string
}

func (r Request) methodName() string {
	if r.Method == "" {
		return MethodLogin
	}
	return r.Method
}

// AnonymousLogin logs in as a brand new anonymous account.
func AnonymousLogin() Request {
	return Request{Method: MethodLogin, Anonymous: true}
}

// PasswordLogin logs in with an email and password.
func PasswordLogin(email, password string) Request {
	return Request{Method: MethodLogin, Email: email, Password: password}
}

// ResumeLogin logs in with a token from a previous login.
func ResumeLogin(token string) Request {
	return Request{Method: MethodLogin, Token: token}
}

// CreateUser creates a password account and logs in as it.
func CreateUser(email, password string) Request {
	return Request{Method: MethodCreateUser, Email: email, Password: password}
}

// runMethod resolves the account a request logs into. The returned
// account may be non nil together with an error, as with a wrong password.
func (p *Pipeline) runMethod(ctx context.Context, req Request) (*authswitch.Account, string, error) {
	switch req.methodName() {
	case MethodCreateUser:
		return p.createUser(ctx, req)
	case MethodLogin:
	default:
		return nil, "", ErrUnknownMethod
	}

	switch {
	case req.Anonymous:
		return p.anonymousLogin(ctx)
	case req.Token != "":
		return p.resumeLogin(ctx, req.Token)
	case req.Email != "":
		return p.passwordLogin(ctx, req.Email, req.Password)
	default:
		return nil, "", ErrUnknownMethod
	}
}

func (p *Pipeline) anonymousLogin(ctx context.Context) (*authswitch.Account, string, error) {
	now := time.Now()
	account, err := p.store.CreateAccount(ctx, &authswitch.Account{
		CreatedAt: now,
		Services: map[string]*authswitch.Credential{
			ServiceAnonymous: {
				Service:    ServiceAnonymous,
				Identifier: uuid.NewString(),
				CreatedAt:  now,
			},
		},
	})
	if err != nil {
		return nil, ServiceAnonymous, err
	}
	return account, ServiceAnonymous, nil
}

func (p *Pipeline) passwordLogin(ctx context.Context, email, password string) (*authswitch.Account, string, error) {
	account, err := p.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, authswitch.ErrAccountNotFound) {
			return nil, ServicePassword, ErrUserNotFound
		}
		return nil, ServicePassword, err
	}

	cred, ok := account.Services[ServicePassword]
	if !ok || cred == nil || cred.Secret == "" {
		return account, ServicePassword, ErrIncorrectPassword
	}

	if err := ComparePasswordAndHash(password, cred.Secret); err != nil {
		return account, ServicePassword, err
	}

	return account, ServicePassword, nil
}

func (p *Pipeline) resumeLogin(ctx context.Context, token string) (*authswitch.Account, string, error) {
	claims, err := p.tokens.Validate(token)
	if err != nil {
		return nil, ServiceResume, err
	}

	account, err := p.store.FindAccount(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, authswitch.ErrAccountNotFound) {
			return nil, ServiceResume, ErrUserNotFound
		}
		return nil, ServiceResume, err
	}

	return account, ServiceResume, nil
}

// createUser persists a password account before the attempt is validated.
// The account is kept even when a hook later refuses the login.
func (p *Pipeline) createUser(ctx context.Context, req Request) (*authswitch.Account, string, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ServicePassword, ErrInvalidRequest
	}

	if _, err := p.store.FindByEmail(ctx, email); err == nil {
		return nil, ServicePassword, ErrEmailExists
	} else if !errors.Is(err, authswitch.ErrAccountNotFound) {
		return nil, ServicePassword, err
	}

	hash, err := HashPassword(req.Password, p.passwordCost)
	if err != nil {
		return nil, ServicePassword, err
	}

	now := time.Now()
	account, err := p.store.CreateAccount(ctx, &authswitch.Account{
		Email:     email,
		Username:  strings.Split(email, "@")[0],
		CreatedAt: now,
		Services: map[string]*authswitch.Credential{
			ServicePassword: {
				Service:    ServicePassword,
				Identifier: email,
				Secret:     hash,
				CreatedAt:  now,
			},
		},
	})
	if err != nil {
		return nil, ServicePassword, err
	}

	return account, ServicePassword, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
