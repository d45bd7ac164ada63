package middleware

import (
	"net/http"

	"github.com/indusops/opsdesk/internal/models"
	"github.com/indusops/opsdesk/internal/session"
)

// RequireRole lets through callers with one of roles. Admins always pass.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]bool{models.RoleAdmin: true}
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := session.UserFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !allowed[user.Role] {
				writeError(w, http.StatusForbidden, "Your role cannot perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
