package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"gatehouse/internal/auth/authz"
	"gatehouse/internal/auth/gate"
	"gatehouse/internal/auth/models"
	"gatehouse/internal/auth/secret"
	"gatehouse/internal/auth/service"
	accountstore "gatehouse/internal/auth/store/account"
	sessionstore "gatehouse/internal/auth/store/session"
	"gatehouse/internal/auth/token"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/audit"
	"gatehouse/pkg/platform/audit/interceptor"
	auditmemory "gatehouse/pkg/platform/audit/store/memory"
	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/testutil"
)

// testApp is a fully wired in-memory instance of the HTTP surface.
type testApp struct {
	router     http.Handler
	sessions   *sessionstore.InMemoryStore
	accounts   *accountstore.InMemoryStore
	auditStore *auditmemory.Store
	recorder   *audit.Recorder
	adminID    id.UserID
}

// apiStub stands in for the embedding application's resource handlers.
func apiStub() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tickets/", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{"id": 42, "title": "renamed"},
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"ok": true}})
	})
	return http.StripPrefix("/api", mux)
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	codec, err := token.NewCodec(token.DeriveKey("test-key"))
	require.NoError(t, err)

	sessions := sessionstore.NewInMemory()
	accounts := accountstore.NewInMemory()
	auditStore := auditmemory.New()
	recorder := audit.NewRecorder(16, logger, nil)
	auth := service.New(sessions, accounts, codec, logger, nil, recorder)

	audits := interceptor.New(recorder, interceptor.NewResolver(interceptor.DefaultRules()...), nil, logger)

	adminID := id.NewUserID()
	handler := NewHandler(auth, auditStore, authz.NewStatic([]id.UserID{adminID}), logger)

	return &testApp{
		router:     NewRouter(handler, audits, nil, apiStub()),
		sessions:   sessions,
		accounts:   accounts,
		auditStore: auditStore,
		recorder:   recorder,
		adminID:    adminID,
	}
}

// seedAccount registers an active account with the given credentials.
func (a *testApp) seedAccount(t *testing.T, email, password string) *models.Account {
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
	a.accounts.Seed(acct)
	return acct
}

// seedAdmin registers the account authorized for /admin routes.
func (a *testApp) seedAdmin(t *testing.T, password string) *models.Account {
	t.Helper()
	hash, err := secret.Hash(password)
	require.NoError(t, err)
	acct := &models.Account{
		ID:           a.adminID,
		Email:        "admin@example.com",
		Name:         "Admin",
		PasswordHash: hash,
		Active:       true,
	}
	a.accounts.Seed(acct)
	return acct
}

// login performs a credential login over HTTP and returns the session cookie.
// The recorder is drained afterwards so tests asserting on audit entries only
// see the traffic they generate themselves.
func (a *testApp) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rr := a.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}))
	require.Equal(t, http.StatusOK, rr.Code, "login: %s", rr.Body.String())
	cookie := sessionCookie(t, rr)
	require.NotNil(t, cookie)
	a.drainRecorder()
	return cookie
}

// drainRecorder discards every buffered audit entry.
func (a *testApp) drainRecorder() []*audit.Entry {
	var out []*audit.Entry
	for {
		select {
		case e := <-a.recorder.Entries():
			out = append(out, e)
		default:
			return out
		}
	}
}

func (a *testApp) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == gate.CookieName {
			return c
		}
	}
	return nil
}
