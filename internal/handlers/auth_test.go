package handlers

import (
	"classcrew/internal/models"
	"classcrew/internal/reqctx"
	"classcrew/internal/services"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	users      []*models.User
	loginErr   error
	refreshErr error
	lastLimit  int
	lastOffset int
}

func (s *stubAuth) RegisterUser(_ context.Context, input *models.User, plain string) error {
	if len(plain) < 8 {
		return services.ErrWeakPassword
	}
	for _, u := range s.users {
		if u.Username == input.Username {
			return services.ErrUsernameTaken
		}
	}
	input.ID = len(s.users) + 1
	s.users = append(s.users, input)
	return nil
}

func (s *stubAuth) LoginUser(_ context.Context, username, _ string) (*services.TokenPair, *models.User, error) {
	if s.loginErr != nil {
		return nil, nil, s.loginErr
	}
	return &services.TokenPair{AccessToken: "a", RefreshToken: "r"}, &models.User{Username: username, Role: "user"}, nil
}

func (s *stubAuth) Refresh(_ context.Context, token string) (string, error) {
	if s.refreshErr != nil {
		return "", s.refreshErr
	}
	return "new-" + token, nil
}

func (s *stubAuth) Logout(_ context.Context, _ string) error {
	return s.refreshErr
}

func (s *stubAuth) GetUserByID(_ context.Context, id int) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, services.ErrUserNotFound
}

func (s *stubAuth) GetUsersPaginated(_ context.Context, limit, offset int) ([]*models.User, int, error) {
	s.lastLimit, s.lastOffset = limit, offset
	return s.users, len(s.users), nil
}

func TestAuthHandler_Register(t *testing.T) {
	svc := &stubAuth{}
	h := NewAuthHandler(svc)
	body := `{"username":"minjun","full_name":"김민준","phone":"010-1234-5678","email":"m@x.io","password":"secret-pass"}`

	rr, env := serve(t, h.Register, body)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, env.Success)

	rr, env = serve(t, h.Register, body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, env.Success)

	rr, _ = serve(t, h.Register, `{"username":"x","full_name":"x","phone":"1","email":"not-an-email","password":"secret-pass"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	h := NewAuthHandler(&stubAuth{})
	rr, env := serve(t, h.Login, `{"username":"minjun","password":"secret-pass"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "a", resp.AccessToken)
	assert.Equal(t, "r", resp.RefreshToken)
	assert.Equal(t, "minjun", resp.Username)

	h = NewAuthHandler(&stubAuth{loginErr: services.ErrInvalidCredentials})
	rr, _ = serve(t, h.Login, `{"username":"minjun","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthHandler_RefreshNeedsBearer(t *testing.T) {
	h := NewAuthHandler(&stubAuth{})

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rr := httptest.NewRecorder()
	h.Refresh(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	req.Header.Set("Authorization", "Bearer rt")
	rr = httptest.NewRecorder()
	h.Refresh(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"access_token":"new-rt"`)

	h = NewAuthHandler(&stubAuth{refreshErr: services.ErrInvalidRefreshToken})
	req = httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.Header.Set("Authorization", "Bearer rt")
	rr = httptest.NewRecorder()
	h.Logout(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthHandler_Profile(t *testing.T) {
	svc := &stubAuth{users: []*models.User{{ID: 1, Username: "minjun", PasswordHash: "secret-hash"}}}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req = req.WithContext(reqctx.WithUserID(req.Context(), 1))
	rr := httptest.NewRecorder()
	h.Profile(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"username":"minjun"`)
	assert.NotContains(t, rr.Body.String(), "secret-hash")

	req = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rr = httptest.NewRecorder()
	h.Profile(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthHandler_GetUsersPaging(t *testing.T) {
	svc := &stubAuth{}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users?page=3&page_size=20", nil)
	rr := httptest.NewRecorder()
	h.GetUsers(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 20, svc.lastLimit)
	assert.Equal(t, 40, svc.lastOffset)
	assert.True(t, strings.Contains(rr.Body.String(), `"users":[]`))

	req = httptest.NewRequest(http.MethodGet, "/api/admin/users?page=-1&page_size=1000", nil)
	h.GetUsers(httptest.NewRecorder(), req)
	assert.Equal(t, 10, svc.lastLimit)
	assert.Equal(t, 0, svc.lastOffset)
}

type stubChanger struct{ err error }

func (s stubChanger) ChangePassword(context.Context, int, string, string) error { return s.err }

func TestPasswordHandler_Change(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"ok", nil, http.StatusOK},
		{"weak", services.ErrWeakPassword, http.StatusBadRequest},
		{"wrong old", services.ErrOldPasswordIncorrect, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPasswordHandler(stubChanger{err: tt.err})
			req := httptest.NewRequest(http.MethodPost, "/api/password/change",
				strings.NewReader(`{"old_password":"old-password","new_password":"new-password"}`))
			req = req.WithContext(reqctx.WithUserID(req.Context(), 1))
			rr := httptest.NewRecorder()
			h.Change(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
