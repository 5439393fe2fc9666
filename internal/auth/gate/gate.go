// Package gate is the per-request authentication check all protected
// handlers pass through. It resolves the caller's identity from the bearer
// cookie and injects it into the request context; business handlers never
// see the cookie or the token.
package gate

import (
	"context"
	"log/slog"
	"net/http"

	"gatehouse/internal/auth/service"
	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/requestcontext"
)

// Resolver authenticates a bearer token into an identity. Implemented by
// the auth service; stubbed in middleware tests.
type Resolver interface {
	ResolveSession(ctx context.Context, bearer string) (*service.Identity, error)
}

// RequireSession rejects requests without a valid session cookie. Failures
// are terminal for the request; there are no retries and no caching of
// negative results, so every request re-verifies.
func RequireSession(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// A prior same-request resolution passes through untouched.
			if requestcontext.Authenticated(ctx) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				logger.WarnContext(ctx, "unauthenticated request - missing session cookie",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, unauthenticated())
				return
			}

			identity, err := resolver.ResolveSession(ctx, cookie.Value)
			if err != nil {
				// The resolver already logged why; callers only ever
				// see the generic rejection (or a 500 for store faults).
				httputil.WriteError(w, err)
				return
			}

			ctx = requestcontext.WithIdentity(ctx, identity.UserID, identity.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
