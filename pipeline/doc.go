// Package pipeline is a small login attempt pipeline that authswitch hooks
// plug into.
//
// A Pipeline logs Sessions in with anonymous, password, createUser and
// resume-token requests. Each Login call begins a new invocation on its
// context, binds the session to it and remembers who the session was
// logged in as, so CurrentIdentity keeps answering with the pre-attempt
// identity for every hook of that call.
//
// Hooks:
//   - ValidateLoginAttempt hooks all run, in registration order. A hook
//     returning false refuses the attempt with ErrLoginForbidden unless an
//     earlier reason exists; a hook returning an error refuses it with that
//     error.
//   - OnLogin and OnLoginFailure hooks observe the final outcome. Their
//     errors are logged and never change the outcome.
//
// Passwords are hashed with bcrypt and resume tokens are HS256 JWTs.
package pipeline
