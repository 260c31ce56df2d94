package middleware

import (
	"classcrew/internal/reqctx"
	helpers "classcrew/internal/utils/helpers"
	"net/http"
)

// OnlyRole must run after JWTAuth.
func OnlyRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole, ok := reqctx.GetRole(r.Context())
			if !ok || userRole != role {
				helpers.Error(w, http.StatusForbidden, "접근 권한이 없습니다.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
