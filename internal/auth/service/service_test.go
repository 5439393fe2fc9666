package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"gatehouse/internal/auth/models"
	"gatehouse/internal/auth/secret"
	accountstore "gatehouse/internal/auth/store/account"
	sessionstore "gatehouse/internal/auth/store/session"
	"gatehouse/internal/auth/token"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/audit"
)

// countingMetrics records invocations so tests can assert instrumentation
// without a registry.
type countingMetrics struct {
	loginsSucceeded int
	loginsFailed    int
	authRejected    int
	sessionsRevoked int
}

func (m *countingMetrics) LoginSucceeded() { m.loginsSucceeded++ }
func (m *countingMetrics) LoginFailed()    { m.loginsFailed++ }
func (m *countingMetrics) AuthRejected()   { m.authRejected++ }
func (m *countingMetrics) SessionRevoked() { m.sessionsRevoked++ }

// capturingAuditor collects emitted audit entries for inspection.
type capturingAuditor struct {
	entries []*audit.Entry
}

func (a *capturingAuditor) Record(_ context.Context, entry *audit.Entry) {
	a.entries = append(a.entries, entry)
}

type fixture struct {
	service  *Service
	sessions *sessionstore.InMemoryStore
	accounts *accountstore.InMemoryStore
	codec    *token.Codec
	metrics  *countingMetrics
	auditor  *capturingAuditor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	codec, err := token.NewCodec(token.DeriveKey("test-key"))
	require.NoError(t, err)

	sessions := sessionstore.NewInMemory()
	accounts := accountstore.NewInMemory()
	metrics := &countingMetrics{}
	auditor := &capturingAuditor{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		service:  New(sessions, accounts, codec, logger, metrics, auditor),
		sessions: sessions,
		accounts: accounts,
		codec:    codec,
		metrics:  metrics,
		auditor:  auditor,
	}
}

// seedAccount stores an active account with the given password and returns it.
func (f *fixture) seedAccount(t *testing.T, email, password string) *models.Account {
	t.Helper()
	hash, err := secret.Hash(password)
	require.NoError(t, err)
	acct := &models.Account{
		ID:           id.NewUserID(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Active:       true,
	}
	f.accounts.Seed(acct)
	return acct
}

// login runs a full credential login and returns the result.
func (f *fixture) login(t *testing.T, ctx context.Context, email, password string) *LoginResult {
	t.Helper()
	res, err := f.service.Login(ctx, email, password)
	require.NoError(t, err)
	return res
}
