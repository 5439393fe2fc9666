package httptransport

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"gatehouse/internal/auth/models"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/platform/pagination"
	"gatehouse/pkg/requestcontext"
)

// sessionView is the serialized shape of a session. The secret hash is
// deliberately absent; nothing in the transport layer may expose it.
type sessionView struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	IP         string     `json:"ip"`
	Agent      string     `json:"agent"`
	Device     string     `json:"device"`
	Current    bool       `json:"current"`
	LastUsedAt time.Time  `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

func sessionViewOf(s *models.Session, current id.SessionID) sessionView {
	return sessionView{
		ID:         s.ID.String(),
		UserID:     s.UserID.String(),
		IP:         s.IP,
		Agent:      s.Agent,
		Device:     deviceSummary(s.Agent),
		Current:    s.ID == current,
		LastUsedAt: s.LastUsedAt,
		CreatedAt:  s.CreatedAt,
		RevokedAt:  s.RevokedAt,
	}
}

// deviceSummary renders a stored user agent as a short human-readable label,
// e.g. "Firefox 131 on Linux".
func deviceSummary(agent string) string {
	if agent == "" || agent == "unknown" {
		return "Unknown device"
	}
	ua := useragent.New(agent)
	name, version := ua.Browser()
	if name == "" {
		return "Unknown device"
	}
	if i := strings.Index(version, "."); i > 0 {
		version = version[:i]
	}
	label := name
	if version != "" {
		label = fmt.Sprintf("%s %s", name, version)
	}
	if os := ua.OS(); os != "" {
		label = fmt.Sprintf("%s on %s", label, os)
	}
	return label
}

// handleListSessions returns the caller's own sessions, newest first.
// Revoked sessions are included only when ?revoked=true is set.
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	includeRevoked := r.URL.Query().Get("revoked") == "true"

	sessions, err := h.auth.ListSessions(ctx, requestcontext.UserID(ctx), includeRevoked)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	current := requestcontext.SessionID(ctx)
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionViewOf(s, current))
	}
	httputil.WriteJSON(w, http.StatusOK, envelope{Data: views})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	s, err := h.auth.GetSession(ctx, requestcontext.UserID(ctx), sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, envelope{Data: sessionViewOf(s, requestcontext.SessionID(ctx))})
}

// handleRevokeSession revokes one of the caller's sessions. Revoking an
// already-revoked session responds 200 with the unchanged record.
func (h *Handler) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	s, err := h.auth.RevokeSession(ctx, requestcontext.UserID(ctx), sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, envelope{Data: sessionViewOf(s, requestcontext.SessionID(ctx))})
}

// handleAdminListSessions pages through every user's sessions.
func (h *Handler) handleAdminListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := pagination.FromRequest(r)
	includeRevoked := r.URL.Query().Get("revoked") == "true"

	sessions, total, err := h.auth.AdminListSessions(ctx, page, includeRevoked)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	current := requestcontext.SessionID(ctx)
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionViewOf(s, current))
	}
	httputil.WriteJSON(w, http.StatusOK, envelope{Data: views, Meta: metaPtr(pagination.MetaFor(page, total))})
}
