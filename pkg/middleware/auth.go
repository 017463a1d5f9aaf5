package middleware

import (
	"context"
	"net/http"
	"strings"

	"drivebox/pkg/auth"
	"drivebox/pkg/cache"
	"drivebox/pkg/response"
)

type claimsKey struct{}

// DenylistKey is the Redis key holding a revoked token's jti.
func DenylistKey(jti string) string { return "auth:revoked:" + jti }

// BearerToken extracts the credential from the Authorization header,
// falling back to the "token" cookie for browser downloads where scripts
// cannot set headers on navigation requests.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie("token"); err == nil {
		return c.Value
	}
	return ""
}

// Auth rejects requests without a valid, unrevoked access token and stores
// the verified claims in the request context for handlers and rbac checks.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			response.Unauthorized(w)
			return
		}

		claims, err := auth.ValidateTokenOfKind(token, auth.KindAccess)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if claims.ID != "" && cache.Has(DenylistKey(claims.ID)) {
			response.Error(w, http.StatusUnauthorized, "Token revoked")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromCtx returns the verified claims stored by Auth.
func ClaimsFromCtx(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

// UserIDFromCtx returns the authenticated user's ID, 0 when unauthenticated.
func UserIDFromCtx(ctx context.Context) uint {
	if claims, ok := ClaimsFromCtx(ctx); ok {
		return claims.UserID
	}
	return 0
}

// RoleFromCtx returns the authenticated user's role, "" when unauthenticated.
func RoleFromCtx(ctx context.Context) string {
	if claims, ok := ClaimsFromCtx(ctx); ok {
		return claims.Role
	}
	return ""
}
