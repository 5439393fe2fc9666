package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/audit"
	"gatehouse/pkg/platform/pagination"
)

func TestLogout_RevokesResolvedSession(t *testing.T) {
	f := newFixture(t)
	acct := f.seedAccount(t, "user@example.com", "hunter2")
	ctx := context.Background()
	res := f.login(t, ctx, "user@example.com", "hunter2")

	require.NoError(t, f.service.Logout(ctx, acct.ID, res.SessionID))

	sess, err := f.sessions.FindByID(ctx, res.SessionID)
	require.NoError(t, err)
	assert.True(t, sess.Revoked())
	assert.Equal(t, 1, f.metrics.sessionsRevoked)
}

func TestLogout_FallsBackToLatestActiveSession(t *testing.T) {
	f := newFixture(t)
	acct := f.seedAccount(t, "user@example.com", "hunter2")
	ctx := context.Background()
	res := f.login(t, ctx, "user@example.com", "hunter2")

	require.NoError(t, f.service.Logout(ctx, acct.ID, id.SessionID{}))

	sess, err := f.sessions.FindByID(ctx, res.SessionID)
	require.NoError(t, err)
	assert.True(t, sess.Revoked())
}

func TestLogout_NothingToRevokeStillSucceeds(t *testing.T) {
	f := newFixture(t)
	acct := f.seedAccount(t, "user@example.com", "hunter2")

	assert.NoError(t, f.service.Logout(context.Background(), acct.ID, id.SessionID{}))
	assert.NoError(t, f.service.Logout(context.Background(), acct.ID, id.NewSessionID()))
}

func TestLogout_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	err := f.service.Logout(context.Background(), id.UserID{}, id.SessionID{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestRevokeSession_Idempotent(t *testing.T) {
	f := newFixture(t)
	acct := f.seedAccount(t, "user@example.com", "hunter2")
	ctx := context.Background()
	res := f.login(t, ctx, "user@example.com", "hunter2")

	first, err := f.service.RevokeSession(ctx, acct.ID, res.SessionID)
	require.NoError(t, err)
	require.NotNil(t, first.RevokedAt)

	second, err := f.service.RevokeSession(ctx, acct.ID, res.SessionID)
	require.NoError(t, err)
	assert.True(t, first.RevokedAt.Equal(*second.RevokedAt))
	assert.Equal(t, 1, f.metrics.sessionsRevoked, "only the first revocation counts")

	// One login entry plus one revoke entry; the no-op repeat adds nothing.
	require.Len(t, f.auditor.entries, 2)
	revokeEntry := f.auditor.entries[1]
	assert.Equal(t, audit.ActionRevoke, revokeEntry.Action)
	assert.Equal(t, audit.EntitySession, revokeEntry.EntityType)
	assert.Equal(t, res.SessionID.String(), revokeEntry.EntityID)
	require.NotNil(t, revokeEntry.PerformedBy)
	assert.Equal(t, acct.ID, *revokeEntry.PerformedBy)
}

func TestRevokeSession_ForeignSessionReportsNotFound(t *testing.T) {
	f := newFixture(t)
	f.seedAccount(t, "owner@example.com", "hunter2")
	f.seedAccount(t, "other@example.com", "hunter2")
	ctx := context.Background()
	res := f.login(t, ctx, "owner@example.com", "hunter2")
	otherLogin := f.login(t, ctx, "other@example.com", "hunter2")

	_, errForeign := f.service.RevokeSession(ctx, otherLogin.Account.ID, res.SessionID)
	_, errMissing := f.service.RevokeSession(ctx, otherLogin.Account.ID, id.NewSessionID())

	require.Error(t, errForeign)
	require.Error(t, errMissing)
	assert.True(t, dErrors.HasCode(errForeign, dErrors.CodeNotFound))
	assert.Equal(t, errMissing.Error(), errForeign.Error(),
		"foreign sessions must look exactly like missing ones")
}

func TestRevokeSession_RequiresSessionID(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.RevokeSession(context.Background(), id.NewUserID(), id.SessionID{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestGetSession_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	acct := f.seedAccount(t, "user@example.com", "hunter2")
	ctx := context.Background()
	res := f.login(t, ctx, "user@example.com", "hunter2")

	got, err := f.service.GetSession(ctx, acct.ID, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, res.SessionID, got.ID)

	_, err = f.service.GetSession(ctx, id.NewUserID(), res.SessionID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestListSessions_RevokedFilter(t *testing.T) {
	f := newFixture(t)
	acct := f.seedAccount(t, "user@example.com", "hunter2")
	ctx := context.Background()

	first := f.login(t, ctx, "user@example.com", "hunter2")
	f.login(t, ctx, "user@example.com", "hunter2")
	_, err := f.service.RevokeSession(ctx, acct.ID, first.SessionID)
	require.NoError(t, err)

	active, err := f.service.ListSessions(ctx, acct.ID, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := f.service.ListSessions(ctx, acct.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAdminListSessions_SpansUsers(t *testing.T) {
	f := newFixture(t)
	f.seedAccount(t, "a@example.com", "hunter2")
	f.seedAccount(t, "b@example.com", "hunter2")
	ctx := context.Background()
	f.login(t, ctx, "a@example.com", "hunter2")
	f.login(t, ctx, "b@example.com", "hunter2")

	sessions, total, err := f.service.AdminListSessions(ctx, pagination.Page{Number: 1, PerPage: 1}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, sessions, 1)
}
