package gate

import (
	"net/http"

	dErrors "gatehouse/pkg/domain-errors"
)

// Cookie contract for the bearer token.
const (
	CookieName   = "session_token"
	CookieMaxAge = 7 * 24 * 60 * 60 // seconds
)

func unauthenticated() error {
	return dErrors.New(dErrors.CodeUnauthorized, "Unauthenticated.")
}

// SetSessionCookie attaches the bearer token to the response. The token
// travels only here, never in a response body.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie deletes the bearer cookie. Logout calls this whether or
// not a session was found, keeping logout idempotent.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
