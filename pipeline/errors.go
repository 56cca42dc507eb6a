package pipeline

import "github.com/goliatone/go-errors"

const (
	TextCodeLoginForbidden    = "login_forbidden"
	TextCodeUserNotFound      = "login_user_not_found"
	TextCodeIncorrectPassword = "login_incorrect_password"
	TextCodeEmailExists       = "login_email_exists"
	TextCodeUnknownMethod     = "login_unknown_method"
	TextCodeInvalidRequest    = "login_invalid_request"
	TextCodeTokenMalformed    = "login_token_malformed"
	TextCodeTokenExpired      = "login_token_expired"
	TextCodeNoSession         = "login_no_session"
)

// ErrLoginForbidden is the denial reason of an attempt refused by a
// validate hook that did not provide its own error.
var ErrLoginForbidden = errors.New("login forbidden", errors.CategoryAuthz).
	WithTextCode(TextCodeLoginForbidden).
	WithCode(errors.CodeForbidden)

// ErrUserNotFound is returned when a password login names no account.
var ErrUserNotFound = errors.New("user not found", errors.CategoryAuth).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeForbidden)

// ErrIncorrectPassword is returned when a password does not match.
var ErrIncorrectPassword = errors.New("incorrect password", errors.CategoryAuth).
	WithTextCode(TextCodeIncorrectPassword).
	WithCode(errors.CodeForbidden)

// ErrEmailExists is returned by createUser when the email is taken.
var ErrEmailExists = errors.New("email already exists", errors.CategoryValidation).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrUnknownMethod is returned for requests no login method understands.
var ErrUnknownMethod = errors.New("unrecognized login request", errors.CategoryBadInput).
	WithTextCode(TextCodeUnknownMethod).
	WithCode(errors.CodeBadRequest)

// ErrInvalidRequest is returned for incomplete login requests.
var ErrInvalidRequest = errors.New("invalid login request", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidRequest).
	WithCode(errors.CodeBadRequest)

// ErrTokenMalformed is returned when a resume token cannot be validated.
var ErrTokenMalformed = errors.New("malformed resume token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a resume token has expired.
var ErrTokenExpired = errors.New("resume token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrNoSession is returned when Login is called without a session.
var ErrNoSession = errors.New("login requires a session", errors.CategoryBadInput).
	WithTextCode(TextCodeNoSession).
	WithCode(errors.CodeBadRequest)
