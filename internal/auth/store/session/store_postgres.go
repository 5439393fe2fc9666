package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gatehouse/internal/auth/models"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/pagination"
	"gatehouse/pkg/platform/sentinel"
	txcontext "gatehouse/pkg/platform/tx"
)

// PostgresStore persists sessions in PostgreSQL. Conflicting writes
// serialize at the storage layer via single-row atomic statements; no
// application-side locking.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// dbExecutor is satisfied by *sql.DB and *sql.Tx. Reads go through it too,
// so work inside a transaction observes its own uncommitted writes.
type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ dbExecutor = (*sql.DB)(nil)
	_ dbExecutor = (*sql.Tx)(nil)
)

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const sessionColumns = `id, user_id, secret_hash, ip, agent, last_used_at, created_at, revoked_at`

func (s *PostgresStore) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(session.ID),
		uuid.UUID(session.UserID),
		session.SecretHash,
		session.IP,
		session.Agent,
		session.LastUsedAt,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert session rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) FindActiveByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 AND revoked_at IS NULL`
	return s.findOne(ctx, query, uuid.UUID(sessionID))
}

func (s *PostgresStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return s.findOne(ctx, query, uuid.UUID(sessionID))
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Session, error) {
	session, err := scanSession(s.execer(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) Touch(ctx context.Context, sessionID id.SessionID, now time.Time) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE sessions SET last_used_at = $2 WHERE id = $1`,
		uuid.UUID(sessionID), now,
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch session rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Revoke tombstones the session. The conditional update keeps concurrent
// double-revokes idempotent: only the first write sets revoked_at.
func (s *PostgresStore) Revoke(ctx context.Context, sessionID id.SessionID, now time.Time) (*models.Session, error) {
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		uuid.UUID(sessionID), now,
	)
	if err != nil {
		return nil, fmt.Errorf("revoke session: %w", err)
	}
	return s.FindByID(ctx, sessionID)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, includeRevoked bool) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1`
	if !includeRevoked {
		query += ` AND revoked_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list sessions by user: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (s *PostgresStore) FindLatestActiveByUser(ctx context.Context, userID id.UserID) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	return s.findOne(ctx, query, uuid.UUID(userID))
}

func (s *PostgresStore) List(ctx context.Context, page pagination.Page, includeRevoked bool) ([]*models.Session, int, error) {
	filter := ""
	if !includeRevoked {
		filter = ` WHERE revoked_at IS NULL`
	}

	var total int
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`+filter).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions` + filter +
		` ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := s.execer(ctx).QueryContext(ctx, query, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := collectSessions(rows)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

type row interface {
	Scan(dest ...any) error
}

func scanSession(r row) (*models.Session, error) {
	var (
		session   models.Session
		sessionID uuid.UUID
		userID    uuid.UUID
		revokedAt sql.NullTime
	)
	if err := r.Scan(
		&sessionID,
		&userID,
		&session.SecretHash,
		&session.IP,
		&session.Agent,
		&session.LastUsedAt,
		&session.CreatedAt,
		&revokedAt,
	); err != nil {
		return nil, err
	}
	session.ID = id.SessionID(sessionID)
	session.UserID = id.UserID(userID)
	if revokedAt.Valid {
		session.RevokedAt = &revokedAt.Time
	}
	return &session, nil
}

func collectSessions(rows *sql.Rows) ([]*models.Session, error) {
	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
