package service

import (
	"context"
	"errors"

	"gatehouse/internal/auth/models"
	"gatehouse/internal/auth/secret"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/audit"
	"gatehouse/pkg/platform/sentinel"
	"gatehouse/pkg/requestcontext"
)

// Login messages. Unknown identifier and wrong password share one message so
// responses cannot be used to enumerate accounts; the disabled-account
// message is only reachable after the password verified.
const (
	MsgInvalidCredentials = "Invalid credentials."
	MsgAccountDisabled    = "Account is disabled."
)

// LoginResult carries everything the transport needs after a successful
// login. Token is placed in the Set-Cookie header only, never in a body.
type LoginResult struct {
	Account   *models.Account
	SessionID id.SessionID
	Token     string
}

// Login verifies credentials and issues a new session plus bearer token.
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer span.End()

	acct, err := s.accounts.FindByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.loginFailure(ctx, "unknown_identifier", "")
			return nil, dErrors.New(dErrors.CodeUnauthorized, MsgInvalidCredentials)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up account")
	}

	if !secret.Verify(password, acct.PasswordHash) {
		s.loginFailure(ctx, "password_mismatch", acct.ID.String())
		return nil, dErrors.New(dErrors.CodeUnauthorized, MsgInvalidCredentials)
	}

	// Account state is not secret once the password has been confirmed.
	if !acct.Usable() {
		s.loginFailure(ctx, "account_disabled", acct.ID.String())
		return nil, dErrors.New(dErrors.CodeForbidden, MsgAccountDisabled)
	}

	rawSecret, err := secret.Generate()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate session secret")
	}
	secretHash, err := secret.Hash(rawSecret)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash session secret")
	}

	now := requestcontext.Now(ctx)
	sess := &models.Session{
		ID:         id.NewSessionID(),
		UserID:     acct.ID,
		SecretHash: secretHash,
		IP:         requestcontext.ClientIP(ctx),
		Agent:      requestcontext.UserAgent(ctx),
		LastUsedAt: now,
		CreatedAt:  now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	bearer, err := s.codec.Encode(sess.ID, rawSecret)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode session token")
	}

	if s.metrics != nil {
		s.metrics.LoginSucceeded()
	}
	performer := acct.ID
	s.audit(ctx, &audit.Entry{
		EntityType:  audit.EntitySession,
		EntityID:    sess.ID.String(),
		Action:      audit.ActionLogin,
		PerformedBy: &performer,
	})
	s.logger.InfoContext(ctx, "session created",
		"user_id", acct.ID.String(),
		"session_id", sess.ID.String(),
		"ip", sess.IP,
		"request_id", requestcontext.RequestID(ctx),
	)

	return &LoginResult{Account: acct, SessionID: sess.ID, Token: bearer}, nil
}

// loginFailure records a failed attempt. userID is empty when the
// identifier matched no account.
func (s *Service) loginFailure(ctx context.Context, reason, userID string) {
	if s.metrics != nil {
		s.metrics.LoginFailed()
	}
	s.audit(ctx, &audit.Entry{
		EntityType: audit.EntityUser,
		EntityID:   userID,
		Action:     audit.ActionLoginFailed,
	})
	fields := []any{
		"reason", reason,
		"ip", requestcontext.ClientIP(ctx),
		"request_id", requestcontext.RequestID(ctx),
	}
	if userID != "" {
		fields = append(fields, "user_id", userID)
	}
	s.logger.WarnContext(ctx, "login failed", fields...)
}
