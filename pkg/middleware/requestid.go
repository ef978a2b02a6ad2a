// Package middleware provides reusable HTTP middleware for request IDs,
// Prometheus metrics, request timeouts, and rate limiting.
package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/shopchat/catalog/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID ensures every request carries a request id, generating one when
// the client did not supply it, and stores it in the request context for
// logging.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b[:])
}
