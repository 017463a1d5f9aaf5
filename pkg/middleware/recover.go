package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"drivebox/pkg/logger"
	"drivebox/pkg/response"
)

// Recovery converts panics from downstream handlers into logged 500s.
// Wire it inside reqid/Logger so the stack trace carries the request_id.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithCtx(r.Context()).Error("panic recovered",
					"error", fmt.Sprintf("%v", err),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				)
				response.Error(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
