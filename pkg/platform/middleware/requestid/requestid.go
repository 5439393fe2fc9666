// Package requestid assigns a correlation ID to every request so log lines
// and audit entries from one request can be tied together.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"gatehouse/pkg/requestcontext"
)

// Header carries the correlation ID on requests and responses.
const Header = "X-Request-ID"

// Middleware reuses an inbound X-Request-ID when present (trusted proxies
// set it), otherwise generates one, and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(Header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
