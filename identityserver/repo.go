package identityserver

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Accounts() repository.Repository[*Account]
	RecoveryTokens() repository.Repository[*RecoveryToken]
}

func NewAccountsRepository(db *bun.DB) repository.Repository[*Account] {
	handlers := repository.ModelHandlers[*Account]{
		NewRecord: func() *Account {
			return &Account{}
		},
		GetID: func(record *Account) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Account, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
	}
	return repository.NewRepository(db, handlers)
}

func NewRecoveryTokensRepository(db *bun.DB) repository.Repository[*RecoveryToken] {
	handlers := repository.ModelHandlers[*RecoveryToken]{
		NewRecord: func() *RecoveryToken {
			return &RecoveryToken{}
		},
		GetID: func(record *RecoveryToken) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *RecoveryToken, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db             *bun.DB
	accounts       repository.Repository[*Account]
	recoveryTokens repository.Repository[*RecoveryToken]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:             db,
		accounts:       NewAccountsRepository(db),
		recoveryTokens: NewRecoveryTokensRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.recoveryTokens == nil {
		return errors.New("repository recoveryTokens should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Accounts() repository.Repository[*Account] {
	return m.accounts
}

func (m mngr) RecoveryTokens() repository.Repository[*RecoveryToken] {
	return m.recoveryTokens
}

// CreateSchema creates the backing tables. Used by tests and the dev server.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*Account)(nil),
		(*RecoveryToken)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

// NewMemoryDB opens an in-memory SQLite database with the schema created.
func NewMemoryDB(ctx context.Context) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := CreateSchema(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}
