// Package service implements the authentication flows: credential login,
// bearer-cookie session resolution, logout, and session management. It keeps
// transport concerns out of business logic; handlers translate its coded
// errors into HTTP responses.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gatehouse/internal/auth/store/account"
	"gatehouse/internal/auth/store/session"
	"gatehouse/internal/auth/token"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/audit"
	"gatehouse/pkg/requestcontext"
)

// Metrics is the optional instrumentation hook for auth flows.
type Metrics interface {
	LoginSucceeded()
	LoginFailed()
	AuthRejected()
	SessionRevoked()
}

// Auditor records auth flow events (logins, revocations) into the audit
// trail. Satisfied by audit.Recorder.
type Auditor interface {
	Record(ctx context.Context, entry *audit.Entry)
}

// Identity is the immutable result of a successful gate resolution. It is
// injected into the request context; nothing downstream can mutate it.
type Identity struct {
	UserID    id.UserID
	SessionID id.SessionID
}

// Service wires the session store, account store, and token codec into the
// authentication flows.
type Service struct {
	sessions session.Store
	accounts account.Store
	codec    *token.Codec
	logger   *slog.Logger
	metrics  Metrics // may be nil
	auditor  Auditor // may be nil
	tracer   trace.Tracer
}

func New(sessions session.Store, accounts account.Store, codec *token.Codec, logger *slog.Logger, metrics Metrics, auditor Auditor) *Service {
	return &Service{
		sessions: sessions,
		accounts: accounts,
		codec:    codec,
		logger:   logger.With("component", "auth"),
		metrics:  metrics,
		auditor:  auditor,
		tracer:   otel.Tracer("gatehouse/auth"),
	}
}

// audit hands an entry to the recorder with the client IP filled in. A nil
// auditor turns the call into a no-op.
func (s *Service) audit(ctx context.Context, entry *audit.Entry) {
	if s.auditor == nil {
		return
	}
	entry.IPAddress = requestcontext.ClientIP(ctx)
	s.auditor.Record(ctx, entry)
}
