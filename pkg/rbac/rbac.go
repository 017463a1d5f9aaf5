// Package rbac provides role-based route guards layered on the auth
// middleware's identity context.
package rbac

import (
	"net/http"

	"drivebox/pkg/middleware"
	"drivebox/pkg/response"
)

// HasRole admits only users whose role is in roles. The auth middleware
// must run first so the role is present in the request context.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[middleware.RoleFromCtx(r.Context())] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Guest blocks requests that already carry a valid identity; used on
// login/register so authenticated clients don't mint duplicate sessions.
func Guest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.UserIDFromCtx(r.Context()) != 0 {
			response.Error(w, http.StatusConflict, "Already authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}
