package pipeline

import (
	"context"

	"github.com/goliatone/go-auth-switch"
)

// Store persists the accounts and credentials login methods work with.
// Lookups return authswitch.ErrAccountNotFound when nothing matches.
type Store interface {
	authswitch.Accounts

	FindByEmail(ctx context.Context, email string) (*authswitch.Account, error)
	// CreateAccount persists account together with its Services.
	CreateAccount(ctx context.Context, account *authswitch.Account) (*authswitch.Account, error)
	AddCredential(ctx context.Context, accountID string, cred *authswitch.Credential) error
}
