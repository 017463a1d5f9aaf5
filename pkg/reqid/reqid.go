// Package reqid generates per-request IDs and carries them through context.
//
// The middleware assigns every request an ID (honouring an upstream
// X-Request-ID when present), echoes it back in the response header and
// stores it in the request context. The logging middleware picks it up so
// every log line produced while serving the request carries the same
// request_id attribute.
package reqid

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

// Header is the HTTP header used to propagate request IDs across hops.
const Header = "X-Request-ID"

type ctxKey struct{}

// New returns a random 32-character hex ID.
func New() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// WithValue returns a copy of ctx carrying the request ID.
func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx returns the request ID stored in ctx, or "" when absent.
func FromCtx(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Middleware tags each request with an ID. An X-Request-ID supplied by the
// client (gateway, proxy, retrying SDK) is reused so traces line up across
// services; otherwise a fresh one is generated. The ID is set on the
// response before the handler runs so even panics get a correlated reply.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(Header)
			if id == "" {
				id = New()
			}
			w.Header().Set(Header, id)
			next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), id)))
		})
	}
}
