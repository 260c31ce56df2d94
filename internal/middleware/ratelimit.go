package middleware

import (
	"classcrew/internal/logger"
	helpers "classcrew/internal/utils/helpers"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// LimitByIP allows limit requests per window from one client IP and answers
// the rest with 429 in the usual envelope.
func LimitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.WithCtx(r.Context()).Warn("Rate limit hit", zap.String("path", r.URL.Path))
			helpers.Error(w, http.StatusTooManyRequests, "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.")
		}),
	)
}
