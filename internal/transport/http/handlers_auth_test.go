package httptransport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/pkg/testutil"
)

func TestLogin_SetsHardenedCookie(t *testing.T) {
	app := newTestApp(t)
	acct := app.seedAccount(t, "user@example.com", "hunter2")

	rr := app.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "hunter2",
	}))
	require.Equal(t, http.StatusOK, rr.Code)

	cookie := sessionCookie(t, rr)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 604800, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	body := testutil.UnmarshalResponse[struct {
		Data struct {
			UserID    string `json:"user_id"`
			Email     string `json:"email"`
			SessionID string `json:"session_id"`
		} `json:"data"`
	}](t, rr)
	assert.Equal(t, acct.ID.String(), body.Data.UserID)
	assert.Equal(t, "user@example.com", body.Data.Email)
	require.NotEmpty(t, body.Data.SessionID)
	assert.Equal(t, sessionIDForCookie(t, app, cookie), body.Data.SessionID)
	assert.NotContains(t, rr.Body.String(), cookie.Value, "token travels only in Set-Cookie")
}

func TestLogin_MalformedBody(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, testutil.NewRequestWithBody(t, http.MethodPost, "/auth/login", `{not json`))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestLogin_MissingFields(t *testing.T) {
	app := newTestApp(t)

	for _, body := range []map[string]string{
		{},
		{"email": "user@example.com"},
		{"password": "hunter2"},
		{"email": "   ", "password": "hunter2"},
	} {
		rr := app.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", body))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	}
}

func TestLogin_BadCredentialsAreUniform(t *testing.T) {
	app := newTestApp(t)
	app.seedAccount(t, "user@example.com", "hunter2")

	unknown := app.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "hunter2",
	}))
	wrongPass := app.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "user@example.com", "password": "wrong",
	}))

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, unknown.Body.String(), wrongPass.Body.String())
	assert.Nil(t, sessionCookie(t, unknown))
}

func TestLogin_DisabledAccount(t *testing.T) {
	app := newTestApp(t)
	acct := app.seedAccount(t, "user@example.com", "hunter2")
	acct.Active = false
	app.accounts.Seed(acct)

	rr := app.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "user@example.com", "password": "hunter2",
	}))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	body := testutil.UnmarshalErrorResponse(t, rr)
	assert.Equal(t, "Account is disabled.", body["error_description"])
	assert.Nil(t, sessionCookie(t, rr))
}

func TestLogout_ClearsCookieAndRevokes(t *testing.T) {
	app := newTestApp(t)
	app.seedAccount(t, "user@example.com", "hunter2")
	cookie := app.login(t, "user@example.com", "hunter2")

	req := testutil.NewRequest(t, http.MethodPost, "/auth/logout")
	req.AddCookie(cookie)
	rr := app.do(t, req)
	require.Equal(t, http.StatusOK, rr.Code)

	cleared := sessionCookie(t, rr)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	// The revoked cookie no longer opens the gate.
	again := testutil.NewRequest(t, http.MethodGet, "/auth/sessions")
	again.AddCookie(cookie)
	assert.Equal(t, http.StatusUnauthorized, app.do(t, again).Code)
}

func TestLogout_WithoutCookieIsUnauthenticated(t *testing.T) {
	app := newTestApp(t)
	rr := app.do(t, testutil.NewRequest(t, http.MethodPost, "/auth/logout"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
