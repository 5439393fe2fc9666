package httpserver

import (
	"net/http"
	"time"
)

// New wraps handler in an http.Server with conservative timeouts. The write
// timeout leaves headroom for slow audit-heavy responses; everything else
// stays tight to shed stuck clients.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
