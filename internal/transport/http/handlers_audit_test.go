package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/audit"
	"gatehouse/pkg/testutil"
)

type auditListResponse struct {
	Data []auditBody `json:"data"`
	Meta *struct {
		Total int `json:"total"`
	} `json:"meta"`
}

type auditBody struct {
	ID          string          `json:"id"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	Action      string          `json:"action"`
	PerformedBy *string         `json:"performed_by"`
	Before      json.RawMessage `json:"before"`
	After       json.RawMessage `json:"after"`
	IPAddress   string          `json:"ip_address"`
}

func seedAuditEntry(t *testing.T, app *testApp, createdAt time.Time, isDeleted bool) *audit.Entry {
	t.Helper()
	performer := id.NewUserID()
	entry := &audit.Entry{
		ID:          id.NewEntryID(),
		EntityType:  audit.EntityTicket,
		EntityID:    "42",
		Action:      "patch",
		PerformedBy: &performer,
		Before:      json.RawMessage(`{"title": "old"}`),
		After:       json.RawMessage(`{"title": "new"}`),
		IPAddress:   "203.0.113.9",
		IsDeleted:   isDeleted,
		CreatedAt:   createdAt,
	}
	require.NoError(t, app.auditStore.Append(context.Background(), entry))
	return entry
}

func TestAdminAuditLogs_List(t *testing.T) {
	app := newTestApp(t)
	app.seedAdmin(t, "admin-pass")
	cookie := app.login(t, "admin@example.com", "admin-pass")

	base := time.Now()
	older := seedAuditEntry(t, app, base.Add(-time.Hour), false)
	newer := seedAuditEntry(t, app, base, false)
	seedAuditEntry(t, app, base, true) // soft-deleted, must not appear

	req := testutil.NewRequest(t, http.MethodGet, "/admin/audit-logs")
	req.AddCookie(cookie)
	rr := app.do(t, req)
	require.Equal(t, http.StatusOK, rr.Code)

	body := testutil.UnmarshalResponse[auditListResponse](t, rr)
	require.NotNil(t, body.Meta)
	assert.Equal(t, 2, body.Meta.Total)
	require.Len(t, body.Data, 2)
	assert.Equal(t, newer.ID.String(), body.Data[0].ID, "newest first")
	assert.Equal(t, older.ID.String(), body.Data[1].ID)
}

func TestAdminAuditLogs_Show(t *testing.T) {
	app := newTestApp(t)
	app.seedAdmin(t, "admin-pass")
	cookie := app.login(t, "admin@example.com", "admin-pass")
	entry := seedAuditEntry(t, app, time.Now(), false)

	req := testutil.NewRequest(t, http.MethodGet, "/admin/audit-logs/"+entry.ID.String())
	req.AddCookie(cookie)
	rr := app.do(t, req)
	require.Equal(t, http.StatusOK, rr.Code)

	body := testutil.UnmarshalResponse[struct {
		Data auditBody `json:"data"`
	}](t, rr)
	assert.Equal(t, audit.EntityTicket, body.Data.EntityType)
	assert.Equal(t, "42", body.Data.EntityID)
	assert.Equal(t, "patch", body.Data.Action)
	require.NotNil(t, body.Data.PerformedBy)
	assert.Equal(t, entry.PerformedBy.String(), *body.Data.PerformedBy)
	assert.JSONEq(t, `{"title": "old"}`, string(body.Data.Before))
	assert.JSONEq(t, `{"title": "new"}`, string(body.Data.After))
}

func TestAdminAuditLogs_ShowMissingOrDeleted(t *testing.T) {
	app := newTestApp(t)
	app.seedAdmin(t, "admin-pass")
	cookie := app.login(t, "admin@example.com", "admin-pass")
	deleted := seedAuditEntry(t, app, time.Now(), true)

	for _, entryID := range []string{id.NewEntryID().String(), deleted.ID.String()} {
		req := testutil.NewRequest(t, http.MethodGet, "/admin/audit-logs/"+entryID)
		req.AddCookie(cookie)
		assert.Equal(t, http.StatusNotFound, app.do(t, req).Code)
	}
}

func TestAPIRoutes_GatedAndAudited(t *testing.T) {
	app := newTestApp(t)
	acct := app.seedAccount(t, "user@example.com", "hunter2")
	cookie := app.login(t, "user@example.com", "hunter2")

	// Without a cookie the gate rejects before the stub runs.
	bare := testutil.NewJSONRequest(t, http.MethodPatch, "/api/tickets/42", map[string]string{"title": "renamed"})
	assert.Equal(t, http.StatusUnauthorized, app.do(t, bare).Code)

	// With a valid cookie the mutation reaches the stub and is recorded.
	req := testutil.NewJSONRequest(t, http.MethodPatch, "/api/tickets/42", map[string]string{"title": "renamed"})
	req.AddCookie(cookie)
	rr := app.do(t, req)
	require.Equal(t, http.StatusOK, rr.Code)

	select {
	case entry := <-app.recorder.Entries():
		assert.Equal(t, audit.EntityTicket, entry.EntityType)
		assert.Equal(t, "42", entry.EntityID)
		assert.Equal(t, "patch", entry.Action)
		require.NotNil(t, entry.PerformedBy)
		assert.Equal(t, acct.ID, *entry.PerformedBy)
		assert.NotEmpty(t, entry.IPAddress)
	default:
		t.Fatal("expected an audit entry for the successful mutation")
	}
}

func TestAPIRoutes_ReadsAreNotAudited(t *testing.T) {
	app := newTestApp(t)
	app.seedAccount(t, "user@example.com", "hunter2")
	cookie := app.login(t, "user@example.com", "hunter2")

	req := testutil.NewRequest(t, http.MethodGet, "/api/tickets/42")
	req.AddCookie(cookie)
	require.Equal(t, http.StatusOK, app.do(t, req).Code)

	select {
	case <-app.recorder.Entries():
		t.Fatal("reads must not produce audit entries")
	default:
	}
}

func TestAuthFlows_EmitAuditEntries(t *testing.T) {
	app := newTestApp(t)
	acct := app.seedAccount(t, "user@example.com", "hunter2")

	// A successful login records the new session.
	rr := app.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "user@example.com", "password": "hunter2",
	}))
	require.Equal(t, http.StatusOK, rr.Code)
	entries := app.drainRecorder()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.EntitySession, entries[0].EntityType)
	assert.Equal(t, audit.ActionLogin, entries[0].Action)
	require.NotNil(t, entries[0].PerformedBy)
	assert.Equal(t, acct.ID, *entries[0].PerformedBy)

	// A failed attempt records against the matched account.
	bad := app.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "user@example.com", "password": "wrong",
	}))
	require.Equal(t, http.StatusUnauthorized, bad.Code)
	entries = app.drainRecorder()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.EntityUser, entries[0].EntityType)
	assert.Equal(t, acct.ID.String(), entries[0].EntityID)
	assert.Equal(t, audit.ActionLoginFailed, entries[0].Action)
	assert.Nil(t, entries[0].PerformedBy)

	// Revoking a session by id records the revocation.
	cookie := app.login(t, "user@example.com", "hunter2")
	sid := sessionIDForCookie(t, app, cookie)
	revoke := testutil.NewRequest(t, http.MethodDelete, "/auth/sessions/"+sid)
	revoke.AddCookie(cookie)
	require.Equal(t, http.StatusOK, app.do(t, revoke).Code)
	entries = app.drainRecorder()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.EntitySession, entries[0].EntityType)
	assert.Equal(t, sid, entries[0].EntityID)
	assert.Equal(t, audit.ActionRevoke, entries[0].Action)
	require.NotNil(t, entries[0].PerformedBy)
	assert.Equal(t, acct.ID, *entries[0].PerformedBy)
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	rr := app.do(t, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	assert.Equal(t, http.StatusOK, rr.Code)
}
