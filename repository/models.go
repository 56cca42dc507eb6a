package repository

import (
	"time"

	"github.com/goliatone/go-auth-switch"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountModel is the Bun model for accounts.
type AccountModel struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID          uuid.UUID          `bun:"id,pk,type:uuid"`
	Username    string             `bun:"username"`
	Email       string             `bun:"email,nullzero,unique"`
	CreatedAt   time.Time          `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	Credentials []*CredentialModel `bun:"rel:has-many,join:id=account_id"`
}

// CredentialModel is the Bun model for the login services attached to an
// account. An account holds at most one credential per service.
type CredentialModel struct {
	bun.BaseModel `bun:"table:account_credentials,alias:cred"`

	ID         uuid.UUID      `bun:"id,pk,type:uuid"`
	AccountID  uuid.UUID      `bun:"account_id,notnull,type:uuid"`
	Service    string         `bun:"service,notnull"`
	Identifier string         `bun:"identifier"`
	Secret     string         `bun:"secret"`
	Data       map[string]any `bun:"data,type:jsonb"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func toAccount(m *AccountModel) *authswitch.Account {
	acc := &authswitch.Account{
		ID:        m.ID.String(),
		Username:  m.Username,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
		Services:  make(map[string]*authswitch.Credential, len(m.Credentials)),
	}

	for _, c := range m.Credentials {
		if c == nil {
			continue
		}
		acc.Services[c.Service] = toCredential(c)
	}

	return acc
}

func toCredential(m *CredentialModel) *authswitch.Credential {
	return &authswitch.Credential{
		ID:         m.ID.String(),
		Service:    m.Service,
		Identifier: m.Identifier,
		Secret:     m.Secret,
		Data:       m.Data,
		CreatedAt:  m.CreatedAt,
	}
}

func fromCredential(accountID uuid.UUID, service string, c *authswitch.Credential) *CredentialModel {
	model := &CredentialModel{
		ID:         uuid.New(),
		AccountID:  accountID,
		Service:    service,
		Identifier: c.Identifier,
		Secret:     c.Secret,
		Data:       c.Data,
		CreatedAt:  c.CreatedAt,
	}
	if c.ID != "" {
		if id, err := uuid.Parse(c.ID); err == nil {
			model.ID = id
		}
	}
	if model.Service == "" {
		model.Service = c.Service
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}
	return model
}
