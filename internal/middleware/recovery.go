package middleware

import (
	"net/http"
	"runtime/debug"

	"classcrew/internal/logger"
	helpers "classcrew/internal/utils/helpers"

	"go.uber.org/zap"
)

// Recoverer turns a panic into a generic 500 and logs the stack.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.WithCtx(r.Context()).Error("panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
				)
				helpers.Error(w, http.StatusInternalServerError, "서버 오류가 발생했습니다.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
