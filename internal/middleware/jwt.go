package middleware

import (
	"classcrew/internal/logger"
	"classcrew/internal/reqctx"
	"classcrew/internal/utils"
	helpers "classcrew/internal/utils/helpers"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// JWTAuth requires a valid access token and puts user id and role into the context.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			tokenString, ok := BearerToken(r)
			if !ok {
				logger.WithCtx(r.Context()).Warn("JWTAuth: missing access token")
				helpers.Error(w, http.StatusUnauthorized, "인증 토큰이 없습니다.")
				return
			}

			claims, err := utils.ParseToken(secret, tokenString, utils.TokenTypeAccess)
			if err != nil {
				logger.WithCtx(r.Context()).Warn("JWTAuth: invalid or expired token", zap.Error(err))
				helpers.Error(w, http.StatusUnauthorized, "유효하지 않거나 만료된 토큰입니다.")
				return
			}

			ctx := reqctx.WithUserID(r.Context(), claims.UserID)
			ctx = reqctx.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return t, t != ""
}
