package middleware

import (
	"net/http"

	"github.com/starpool/starpool-backend/internal/api/httpx"
)

// RequireRole allows only requests whose access token carries the given role.
// Must sit behind Auth so the claims are already in the context.
func RequireRole(need string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := Role(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing credentials", nil)
				return
			}
			if role != need {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
