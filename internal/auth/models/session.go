// Package models holds the auth domain entities. Domain rules (revocability,
// usability) live here as methods; stores stay pure I/O.
package models

import (
	"time"

	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/sentinel"
)

// Session represents one authenticated client connection. The client holds
// an opaque token carrying the session id plus a secret; only the argon2id
// hash of that secret is ever persisted.
//
// Persisted field names: id, user_id, secret_hash, ip, agent, last_used_at,
// created_at, revoked_at.
type Session struct {
	ID         id.SessionID
	UserID     id.UserID
	SecretHash string
	IP         string
	Agent      string
	LastUsedAt time.Time
	CreatedAt  time.Time
	RevokedAt  *time.Time
}

// Revoked reports whether the session has been tombstoned.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// CanRevoke returns ErrInvalidState when the session is already revoked.
// Callers treat that state as a no-op, not an error.
func (s *Session) CanRevoke() error {
	if s.Revoked() {
		return sentinel.ErrInvalidState
	}
	return nil
}

// ApplyRevocation tombstones the session. RevokedAt is set exactly once;
// repeated calls leave the original timestamp untouched.
func (s *Session) ApplyRevocation(now time.Time) {
	if s.RevokedAt == nil {
		s.RevokedAt = &now
	}
}
