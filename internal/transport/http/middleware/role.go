package middleware

import (
	"net/http"
	"slices"
)

// RequireRole lets a request through only when the caller's token carries
// one of the given roles. It must run after Auth.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				reject(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
				return
			}
			if !slices.Contains(allowedRoles, claims.Role) {
				reject(w, http.StatusForbidden, codeForbidden, "your role cannot perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
