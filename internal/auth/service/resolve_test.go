package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/requestcontext"
)

func requireUnauthenticated(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "Unauthenticated.", dErrors.MessageOf(err))
}

func TestResolveSession_Success(t *testing.T) {
	f := newFixture(t)
	acct := f.seedAccount(t, "user@example.com", "hunter2")
	ctx := context.Background()
	res := f.login(t, ctx, "user@example.com", "hunter2")

	identity, err := f.service.ResolveSession(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, identity.UserID)
	assert.Equal(t, res.SessionID, identity.SessionID)
}

func TestResolveSession_AdvancesLastUsedAt(t *testing.T) {
	f := newFixture(t)
	f.seedAccount(t, "user@example.com", "hunter2")

	loginAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	loginCtx := requestcontext.WithTime(context.Background(), loginAt)
	res := f.login(t, loginCtx, "user@example.com", "hunter2")

	resolveAt := loginAt.Add(45 * time.Minute)
	resolveCtx := requestcontext.WithTime(context.Background(), resolveAt)
	_, err := f.service.ResolveSession(resolveCtx, res.Token)
	require.NoError(t, err)

	sess, err := f.sessions.FindByID(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.True(t, sess.LastUsedAt.Equal(resolveAt))
	assert.True(t, sess.CreatedAt.Equal(loginAt))
}

func TestResolveSession_EmptyBearer(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.ResolveSession(context.Background(), "")
	requireUnauthenticated(t, err)
}

func TestResolveSession_MalformedToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.ResolveSession(context.Background(), "not-a-real-token")
	requireUnauthenticated(t, err)
	assert.Equal(t, 1, f.metrics.authRejected)
}

func TestResolveSession_RevokedSession(t *testing.T) {
	f := newFixture(t)
	acct := f.seedAccount(t, "user@example.com", "hunter2")
	ctx := context.Background()
	res := f.login(t, ctx, "user@example.com", "hunter2")

	_, err := f.service.RevokeSession(ctx, acct.ID, res.SessionID)
	require.NoError(t, err)

	_, err = f.service.ResolveSession(ctx, res.Token)
	requireUnauthenticated(t, err)
}

func TestResolveSession_DisabledAccountInvalidatesExistingSessions(t *testing.T) {
	f := newFixture(t)
	acct := f.seedAccount(t, "user@example.com", "hunter2")
	ctx := context.Background()
	res := f.login(t, ctx, "user@example.com", "hunter2")

	acct.Active = false
	f.accounts.Seed(acct)

	_, err := f.service.ResolveSession(ctx, res.Token)
	requireUnauthenticated(t, err)
}

func TestResolveSession_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	acct := f.seedAccount(t, "user@example.com", "hunter2")
	ctx := context.Background()
	res := f.login(t, ctx, "user@example.com", "hunter2")
	_, err := f.service.RevokeSession(ctx, acct.ID, res.SessionID)
	require.NoError(t, err)

	_, errMalformed := f.service.ResolveSession(ctx, "garbage")
	_, errRevoked := f.service.ResolveSession(ctx, res.Token)

	require.Error(t, errMalformed)
	require.Error(t, errRevoked)
	assert.Equal(t, errMalformed.Error(), errRevoked.Error(),
		"rejection must not reveal which check failed")
}
