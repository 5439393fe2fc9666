// Package session provides the session store behind the authentication
// core. Implementations are pure I/O; usability rules live in the service.
package session

import (
	"context"
	"time"

	"gatehouse/internal/auth/models"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/pagination"
)

// Store persists sessions. Revocation is a tombstone: records stay readable
// for session-management UIs and audit history, normal flows never delete.
type Store interface {
	// Create persists a new session. A colliding id surfaces as
	// sentinel.ErrConflict (rare with random uuids, retryable).
	Create(ctx context.Context, session *models.Session) error

	// FindActiveByID returns the session only while revoked_at is null;
	// revoked and unknown ids both yield sentinel.ErrNotFound.
	FindActiveByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)

	// FindByID returns the session regardless of revocation state.
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)

	// Touch advances last_used_at. Callers treat failures as best-effort.
	Touch(ctx context.Context, sessionID id.SessionID, now time.Time) error

	// Revoke sets revoked_at exactly once and returns the resulting
	// session. Revoking an already-revoked session is a successful no-op.
	Revoke(ctx context.Context, sessionID id.SessionID, now time.Time) (*models.Session, error)

	// ListByUser returns the user's sessions, newest first. Revoked
	// sessions are included only when includeRevoked is set.
	ListByUser(ctx context.Context, userID id.UserID, includeRevoked bool) ([]*models.Session, error)

	// FindLatestActiveByUser returns the most recently created active
	// session, for legacy logout requests that carry no resolved session.
	FindLatestActiveByUser(ctx context.Context, userID id.UserID) (*models.Session, error)

	// List pages over all sessions, newest first, with the same revoked
	// filter semantics as ListByUser. Returns the filtered total.
	List(ctx context.Context, page pagination.Page, includeRevoked bool) ([]*models.Session, int, error)
}
