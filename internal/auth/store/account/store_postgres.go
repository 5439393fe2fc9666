package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gatehouse/internal/auth/models"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/sentinel"
	txcontext "gatehouse/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) rowQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const accountColumns = `id, email, name, password_hash, active, deleted`

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.findOne(ctx, query, uuid.UUID(userID))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`
	return s.findOne(ctx, query, email)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	var (
		acct   models.Account
		acctID uuid.UUID
	)
	err := s.querier(ctx).QueryRowContext(ctx, query, arg).Scan(
		&acctID,
		&acct.Email,
		&acct.Name,
		&acct.PasswordHash,
		&acct.Active,
		&acct.Deleted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	acct.ID = id.UserID(acctID)
	return &acct, nil
}
