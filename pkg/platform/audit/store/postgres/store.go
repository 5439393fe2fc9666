// Package postgres persists audit entries in PostgreSQL. The store is pure
// I/O; skip rules and entity resolution live in the interceptor.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/audit"
	"gatehouse/pkg/platform/pagination"
	"gatehouse/pkg/platform/sentinel"
	txcontext "gatehouse/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
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

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts one entry. Duplicate ids are ignored so a retried write
// stays idempotent.
func (s *Store) Append(ctx context.Context, entry *audit.Entry) error {
	query := `
		INSERT INTO audit_logs (id, entity_type, entity_id, action, performed_by, before, after, ip_address, is_deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9)
		ON CONFLICT (id) DO NOTHING
	`
	var performedBy any
	if entry.PerformedBy != nil {
		performedBy = uuid.UUID(*entry.PerformedBy)
	}
	var before, after any
	if entry.Before != nil {
		before = []byte(entry.Before)
	}
	if entry.After != nil {
		after = []byte(entry.After)
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		performedBy,
		before,
		after,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, entryID id.EntryID) (*audit.Entry, error) {
	query := `
		SELECT id, entity_type, entity_id, action, performed_by, before, after, ip_address, is_deleted, created_at
		FROM audit_logs
		WHERE id = $1 AND is_deleted = FALSE
	`
	entry, err := scanEntry(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(entryID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find audit entry: %w", err)
	}
	return entry, nil
}

func (s *Store) List(ctx context.Context, page pagination.Page) ([]*audit.Entry, int, error) {
	var total int
	if err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_logs WHERE is_deleted = FALSE`,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	query := `
		SELECT id, entity_type, entity_id, action, performed_by, before, after, ip_address, is_deleted, created_at
		FROM audit_logs
		WHERE is_deleted = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, total, nil
}

type row interface {
	Scan(dest ...any) error
}

func scanEntry(r row) (*audit.Entry, error) {
	var (
		entry       audit.Entry
		entryID     uuid.UUID
		performedBy uuid.NullUUID
		before      []byte
		after       []byte
	)
	if err := r.Scan(
		&entryID,
		&entry.EntityType,
		&entry.EntityID,
		&entry.Action,
		&performedBy,
		&before,
		&after,
		&entry.IPAddress,
		&entry.IsDeleted,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	entry.ID = id.EntryID(entryID)
	if performedBy.Valid {
		userID := id.UserID(performedBy.UUID)
		entry.PerformedBy = &userID
	}
	if before != nil {
		entry.Before = before
	}
	if after != nil {
		entry.After = after
	}
	return &entry, nil
}
