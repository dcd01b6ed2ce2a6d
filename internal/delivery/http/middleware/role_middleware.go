package middleware

import (
	"net/http"

	"lunar-cancer-care/internal/domain/entity"
	"lunar-cancer-care/pkg/response"
)

// RequirePermission creates a middleware that checks the caller's role grants perm.
// The caller is read from context (set by AuthMiddleware).
func RequirePermission(perm entity.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := GetCallerFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Caller information not found")
				return
			}

			if !caller.Can(perm) {
				response.Forbidden(w, "You don't have permission to access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
