package service

import (
	"context"
	"errors"

	"gatehouse/internal/auth/models"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/audit"
	"gatehouse/pkg/platform/pagination"
	"gatehouse/pkg/platform/sentinel"
	"gatehouse/pkg/requestcontext"
)

// Logout revokes the caller's resolved session. When no session was
// resolved (legacy clients), it falls back to the user's most recent active
// session. Logout never fails on "already revoked" or "nothing to revoke";
// clearing the cookie is the transport's job and happens regardless.
func (s *Service) Logout(ctx context.Context, userID id.UserID, sessionID id.SessionID) error {
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "Unauthenticated.")
	}

	if sessionID.IsNil() {
		latest, err := s.sessions.FindLatestActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil // nothing active, logout still succeeds
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to find session")
		}
		sessionID = latest.ID
	}

	_, err := s.revoke(ctx, userID, sessionID)
	if err != nil && dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil
	}
	return err
}

// RevokeSession revokes one of the caller's sessions by id. Foreign session
// ids report not-found rather than forbidden so the endpoint does not leak
// which ids exist. Re-revoking is a successful no-op.
func (s *Service) RevokeSession(ctx context.Context, userID id.UserID, sessionID id.SessionID) (*models.Session, error) {
	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "session ID required")
	}
	return s.revoke(ctx, userID, sessionID)
}

func (s *Service) revoke(ctx context.Context, userID id.UserID, sessionID id.SessionID) (*models.Session, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find session")
	}
	if sess.UserID != userID {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}

	alreadyRevoked := sess.CanRevoke() != nil

	revoked, err := s.sessions.Revoke(ctx, sessionID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}

	if !alreadyRevoked {
		if s.metrics != nil {
			s.metrics.SessionRevoked()
		}
		performer := userID
		s.audit(ctx, &audit.Entry{
			EntityType:  audit.EntitySession,
			EntityID:    revoked.ID.String(),
			Action:      audit.ActionRevoke,
			PerformedBy: &performer,
		})
		s.logger.InfoContext(ctx, "session revoked",
			"user_id", revoked.UserID.String(),
			"session_id", revoked.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return revoked, nil
}

// ListSessions returns the caller's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, userID id.UserID, includeRevoked bool) ([]*models.Session, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID, includeRevoked)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sessions")
	}
	return sessions, nil
}

// GetSession returns one of the caller's sessions. Foreign sessions report
// not-found.
func (s *Service) GetSession(ctx context.Context, userID id.UserID, sessionID id.SessionID) (*models.Session, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find session")
	}
	if sess.UserID != userID {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	return sess, nil
}

// AdminListSessions pages over every user's sessions for the admin UI.
// Authorization is the caller's concern.
func (s *Service) AdminListSessions(ctx context.Context, page pagination.Page, includeRevoked bool) ([]*models.Session, int, error) {
	sessions, total, err := s.sessions.List(ctx, page, includeRevoked)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sessions")
	}
	return sessions, total, nil
}
