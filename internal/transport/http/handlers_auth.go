package httptransport

import (
	"net/http"
	"strings"

	"gatehouse/internal/auth/gate"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/requestcontext"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
}

// handleLogin verifies credentials and sets the session cookie. The bearer
// token travels only in Set-Cookie, never in the response body.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "email and password are required"))
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	gate.SetSessionCookie(w, res.Token)
	httputil.WriteJSON(w, http.StatusOK, envelope{Data: loginResponse{
		UserID:    res.Account.ID.String(),
		Name:      res.Account.Name,
		Email:     res.Account.Email,
		SessionID: res.SessionID.String(),
	}})
}

// handleLogout revokes the current session and clears the cookie. The cookie
// is cleared even when revocation finds nothing; logout always succeeds.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.auth.Logout(ctx, requestcontext.UserID(ctx), requestcontext.SessionID(ctx)); err != nil {
		gate.ClearSessionCookie(w)
		httputil.WriteError(w, err)
		return
	}

	gate.ClearSessionCookie(w)
	httputil.WriteJSON(w, http.StatusOK, envelope{Data: map[string]string{"status": "logged_out"}})
}
