package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-auth-switch"
	"github.com/goliatone/go-auth-switch/pipeline"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	_ pipeline.Store      = (*AccountRepository)(nil)
	_ authswitch.Accounts = (*AccountRepository)(nil)
)

// AccountRepository implements pipeline.Store and authswitch.Accounts
// using Bun.
type AccountRepository struct {
	db *bun.DB
}

// NewAccountRepository creates a new repository.
func NewAccountRepository(db *bun.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateSchema creates the accounts and account_credentials tables.
func (r *AccountRepository) CreateSchema(ctx context.Context) error {
	models := []any{
		(*AccountModel)(nil),
		(*CredentialModel)(nil),
	}
	for _, model := range models {
		if _, err := r.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to create table")
		}
	}

	_, err := r.db.NewCreateIndex().
		Model((*CredentialModel)(nil)).
		Index("uq_account_credentials_service").
		Unique().
		IfNotExists().
		Column("account_id", "service").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create credentials index")
	}

	return nil
}

// FindAccount implements authswitch.Accounts.
func (r *AccountRepository) FindAccount(ctx context.Context, id string) (*authswitch.Account, error) {
	accountID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, authswitch.ErrAccountNotFound
	}

	var model AccountModel
	err = r.db.NewSelect().
		Model(&model).
		Relation("Credentials").
		Where("?TableAlias.id = ?", accountID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "failed to find account")
	}

	return toAccount(&model), nil
}

// FindByEmail implements pipeline.Store.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*authswitch.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, authswitch.ErrAccountNotFound
	}

	var model AccountModel
	err := r.db.NewSelect().
		Model(&model).
		Relation("Credentials").
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "failed to find account by email")
	}

	return toAccount(&model), nil
}

// CreateAccount implements pipeline.Store. The account and its services
// are inserted in one transaction.
func (r *AccountRepository) CreateAccount(ctx context.Context, account *authswitch.Account) (*authswitch.Account, error) {
	if account == nil {
		return nil, errors.New("account is required", errors.CategoryBadInput)
	}

	model := &AccountModel{
		ID:        uuid.New(),
		Username:  account.Username,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}

	for service, cred := range account.Services {
		if cred == nil {
			continue
		}
		model.Credentials = append(model.Credentials, fromCredential(model.ID, service, cred))
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(model).Exec(ctx); err != nil {
			return err
		}
		if len(model.Credentials) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&model.Credentials).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create account")
	}

	return toAccount(model), nil
}

// AddCredential implements pipeline.Store.
func (r *AccountRepository) AddCredential(ctx context.Context, accountID string, cred *authswitch.Credential) error {
	if cred == nil || cred.Service == "" {
		return errors.New("credential service is required", errors.CategoryBadInput)
	}

	id, err := uuid.Parse(strings.TrimSpace(accountID))
	if err != nil {
		return authswitch.ErrAccountNotFound
	}

	model := fromCredential(id, cred.Service, cred)
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to add credential")
	}

	return nil
}

// RemoveCredential detaches service from the account.
func (r *AccountRepository) RemoveCredential(ctx context.Context, accountID, service string) error {
	_, err := r.db.NewDelete().
		Model((*CredentialModel)(nil)).
		Where("account_id = ? AND service = ?", accountID, service).
		Exec(ctx)
	return err
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return authswitch.ErrAccountNotFound
	}
	return errors.Wrap(err, errors.CategoryInternal, message)
}
