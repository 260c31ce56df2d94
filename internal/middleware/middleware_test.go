package middleware

import (
	"classcrew/internal/reqctx"
	"classcrew/internal/utils"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func whoami(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := reqctx.GetUserID(r.Context())
		require.True(t, ok)
		role, _ := reqctx.GetRole(r.Context())
		assert.Equal(t, 42, id)
		assert.Equal(t, "admin", role)
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestJWTAuth(t *testing.T) {
	access, err := utils.GenerateToken(testSecret, 42, "admin", time.Minute, utils.TokenTypeAccess)
	require.NoError(t, err)
	refresh, err := utils.GenerateToken(testSecret, 42, "admin", time.Minute, utils.TokenTypeRefresh)
	require.NoError(t, err)
	foreign, err := utils.GenerateToken("other-secret", 42, "admin", time.Minute, utils.TokenTypeAccess)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid access token", "Bearer " + access, http.StatusTeapot},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized},
		{"foreign signature", "Bearer " + foreign, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			JWTAuth(testSecret)(whoami(t)).ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestOnlyRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := OnlyRole("admin")(ok)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req.WithContext(reqctx.WithRole(req.Context(), "user")))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req.WithContext(reqctx.WithRole(req.Context(), "admin")))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = reqctx.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get(HeaderRequestID))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rr.Header().Get(HeaderRequestID))
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "boom")
}
