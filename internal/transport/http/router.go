// Package httptransport is the thin HTTP layer. Handlers delegate to the auth
// service and audit store without embedding business logic so transport
// concerns stay isolated.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatehouse/internal/auth/authz"
	"gatehouse/internal/auth/gate"
	"gatehouse/internal/auth/models"
	"gatehouse/internal/auth/service"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/audit"
	"gatehouse/pkg/platform/audit/interceptor"
	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/platform/middleware/metadata"
	"gatehouse/pkg/platform/middleware/requestid"
	"gatehouse/pkg/platform/middleware/requesttime"
	"gatehouse/pkg/platform/pagination"
	"gatehouse/pkg/requestcontext"
)

// envelope is the uniform success response shape.
type envelope struct {
	Data any              `json:"data"`
	Meta *pagination.Meta `json:"meta,omitempty"`
}

func metaPtr(m pagination.Meta) *pagination.Meta { return &m }

// AuthService is the surface the transport needs from the auth service.
type AuthService interface {
	Login(ctx context.Context, identifier, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, userID id.UserID, sessionID id.SessionID) error
	ResolveSession(ctx context.Context, bearer string) (*service.Identity, error)
	ListSessions(ctx context.Context, userID id.UserID, includeRevoked bool) ([]*models.Session, error)
	GetSession(ctx context.Context, userID id.UserID, sessionID id.SessionID) (*models.Session, error)
	RevokeSession(ctx context.Context, userID id.UserID, sessionID id.SessionID) (*models.Session, error)
	AdminListSessions(ctx context.Context, page pagination.Page, includeRevoked bool) ([]*models.Session, int, error)
}

// RequestMetrics tracks in-flight requests.
type RequestMetrics interface {
	RequestStarted()
	RequestFinished()
}

// Handler owns the HTTP surface and its collaborators.
type Handler struct {
	auth       AuthService
	auditStore audit.Store
	authorizer authz.Authorizer
	logger     *slog.Logger
}

func NewHandler(auth AuthService, auditStore audit.Store, authorizer authz.Authorizer, logger *slog.Logger) *Handler {
	return &Handler{
		auth:       auth,
		auditStore: auditStore,
		authorizer: authorizer,
		logger:     logger.With("component", "http"),
	}
}

// NewRouter wires the full HTTP surface. api is the embedding application's
// resource handler tree, mounted under /api behind the session gate and the
// audit interceptor; pass nil when no application routes exist.
func NewRouter(h *Handler, audits *interceptor.Interceptor, metrics RequestMetrics, api http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	if metrics != nil {
		r.Use(inFlight(metrics))
	}

	requireSession := gate.RequireSession(h.auth, h.logger)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Post("/logout", h.handleLogout)
			r.Get("/sessions", h.handleListSessions)
			r.Get("/sessions/{sessionID}", h.handleGetSession)
			r.Delete("/sessions/{sessionID}", h.handleRevokeSession)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireSession)
		r.Use(h.requireAdmin)
		r.Get("/sessions", h.handleAdminListSessions)
		r.Get("/audit-logs", h.handleAdminListAuditLogs)
		r.Get("/audit-logs/{entryID}", h.handleAdminGetAuditLog)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(requireSession)
		r.Use(audits.Middleware)
		if api != nil {
			r.Mount("/", api)
		} else {
			r.HandleFunc("/*", func(w http.ResponseWriter, _ *http.Request) {
				httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "not found"))
			})
		}
	})

	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// requireAdmin sits behind the gate; the identity is already resolved.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !h.authorizer.IsAdmin(ctx, requestcontext.UserID(ctx)) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "Forbidden."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func inFlight(metrics RequestMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metrics.RequestStarted()
			defer metrics.RequestFinished()
			next.ServeHTTP(w, r)
		})
	}
}
