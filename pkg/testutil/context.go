package testutil

import (
	"net/http"
	"time"

	id "gatehouse/pkg/domain"
	"gatehouse/pkg/requestcontext"
)

// WithAuth adds a resolved identity to the request context, simulating what
// the authentication gate does for authenticated requests.
func WithAuth(req *http.Request, userID id.UserID, sessionID id.SessionID) *http.Request {
	ctx := requestcontext.WithIdentity(req.Context(), userID, sessionID)
	return req.WithContext(ctx)
}

// WithClientMetadata adds client IP and user agent to the request context.
func WithClientMetadata(req *http.Request, ip, agent string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, agent)
	return req.WithContext(ctx)
}

// WithTime pins the request clock to a fixed instant.
func WithTime(req *http.Request, now time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), now)
	return req.WithContext(ctx)
}
