package service

import (
	"context"
	"errors"

	"gatehouse/internal/auth/secret"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/sentinel"
	"gatehouse/pkg/requestcontext"
)

// errUnauthenticated is the one external failure mode of resolution; every
// internal reason collapses into it so the gate cannot be used to probe
// which step failed.
func errUnauthenticated() error {
	return dErrors.New(dErrors.CodeUnauthorized, "Unauthenticated.")
}

// ResolveSession authenticates a bearer token: decode, active-session
// lookup, secret verification, account checks, then a best-effort touch of
// last_used_at. Each failure is terminal for the request; nothing is cached.
func (s *Service) ResolveSession(ctx context.Context, bearer string) (*Identity, error) {
	ctx, span := s.tracer.Start(ctx, "auth.resolve_session")
	defer span.End()

	if bearer == "" {
		return nil, errUnauthenticated()
	}

	sessionID, rawSecret, err := s.codec.Decode(bearer)
	if err != nil {
		s.resolveFailure(ctx, "malformed_token")
		return nil, errUnauthenticated()
	}

	sess, err := s.sessions.FindActiveByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.resolveFailure(ctx, "unknown_or_revoked_session", "session_id", sessionID.String())
			return nil, errUnauthenticated()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up session")
	}

	// Verifies the cookie holder knows the secret, not just the id; a
	// leaked session id alone is useless.
	if !secret.Verify(rawSecret, sess.SecretHash) {
		s.resolveFailure(ctx, "secret_mismatch", "session_id", sess.ID.String())
		return nil, errUnauthenticated()
	}

	acct, err := s.accounts.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.resolveFailure(ctx, "account_missing", "user_id", sess.UserID.String())
			return nil, errUnauthenticated()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up account")
	}
	if !acct.Usable() {
		s.resolveFailure(ctx, "account_unusable", "user_id", acct.ID.String())
		return nil, errUnauthenticated()
	}

	// Touch is best-effort: a failed write must not block the request it
	// is attached to.
	if err := s.sessions.Touch(ctx, sess.ID, requestcontext.Now(ctx)); err != nil {
		s.logger.WarnContext(ctx, "failed to touch session",
			"error", err,
			"session_id", sess.ID.String(),
		)
	}

	return &Identity{UserID: sess.UserID, SessionID: sess.ID}, nil
}

func (s *Service) resolveFailure(ctx context.Context, reason string, args ...any) {
	if s.metrics != nil {
		s.metrics.AuthRejected()
	}
	fields := append([]any{
		"reason", reason,
		"ip", requestcontext.ClientIP(ctx),
		"request_id", requestcontext.RequestID(ctx),
	}, args...)
	s.logger.WarnContext(ctx, "session resolution failed", fields...)
}
