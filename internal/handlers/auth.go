package handlers

import (
	"classcrew/internal/logger"
	"classcrew/internal/middleware"
	"classcrew/internal/models"
	"classcrew/internal/reqctx"
	"classcrew/internal/services"
	helpers "classcrew/internal/utils/helpers"
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

type authService interface {
	RegisterUser(ctx context.Context, input *models.User, plainPassword string) error
	LoginUser(ctx context.Context, username, password string) (*services.TokenPair, *models.User, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUsersPaginated(ctx context.Context, limit, offset int) ([]*models.User, int, error)
}

type AuthHandler struct {
	authService authService
}

func NewAuthHandler(authService authService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

type usersPage struct {
	Users    []*models.User `json:"users"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param input body registerRequest true "Account data"
// @Success 201 {object} helpers.Response
// @Failure 400 {object} helpers.Response
// @Router /api/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Warn("Invalid payload in Register", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	log.Info("Register user", zap.String("username", req.Username))

	user := &models.User{
		Username: req.Username,
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    req.Email,
	}

	err := h.authService.RegisterUser(r.Context(), user, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrWeakPassword):
		helpers.Error(w, http.StatusBadRequest, "비밀번호는 8자 이상이어야 합니다.")
		return
	case errors.Is(err, services.ErrUsernameTaken):
		helpers.Error(w, http.StatusBadRequest, "이미 사용 중인 아이디입니다.")
		return
	case errors.Is(err, services.ErrEmailTaken):
		helpers.Error(w, http.StatusBadRequest, "이미 사용 중인 이메일입니다.")
		return
	default:
		log.Error("Register failed", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}

	helpers.JSON(w, http.StatusCreated, "회원가입이 완료되었습니다.", nil)
}

// Login godoc
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginRequest true "Credentials"
// @Success 200 {object} helpers.Response{data=loginResponse}
// @Failure 401 {object} helpers.Response
// @Router /api/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Warn("Invalid payload in Login", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	pair, user, err := h.authService.LoginUser(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			helpers.Error(w, http.StatusUnauthorized, "아이디 또는 비밀번호가 올바르지 않습니다.")
			return
		}
		log.Error("Login failed", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}

	helpers.JSON(w, http.StatusOK, "로그인되었습니다.", loginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Username:     user.Username,
		FullName:     user.FullName,
		Role:         user.Role,
	})
}

// Refresh godoc
// @Summary Issue a new access token
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} helpers.Response{data=refreshResponse}
// @Failure 401 {object} helpers.Response
// @Router /api/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "리프레시 토큰이 없습니다.")
		return
	}

	access, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			helpers.Error(w, http.StatusUnauthorized, "유효하지 않은 리프레시 토큰입니다.")
			return
		}
		logger.WithCtx(r.Context()).Error("Refresh failed", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}

	helpers.JSON(w, http.StatusOK, "토큰이 갱신되었습니다.", refreshResponse{AccessToken: access})
}

// Logout godoc
// @Summary Log out (drop the refresh token)
// @Tags auth
// @Security ApiKeyAuth
// @Success 200 {object} helpers.Response
// @Failure 401 {object} helpers.Response
// @Router /api/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "리프레시 토큰이 없습니다.")
		return
	}

	if err := h.authService.Logout(r.Context(), token); err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			helpers.Error(w, http.StatusUnauthorized, "유효하지 않은 리프레시 토큰입니다.")
			return
		}
		logger.WithCtx(r.Context()).Error("Logout failed", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}

	helpers.JSON(w, http.StatusOK, "로그아웃되었습니다.", nil)
}

// Profile godoc
// @Summary Current user's profile
// @Tags profile
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} helpers.Response{data=models.UserProfileResponse}
// @Failure 401 {object} helpers.Response
// @Router /api/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := reqctx.GetUserID(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "인증이 필요합니다.")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			helpers.Error(w, http.StatusNotFound, "사용자를 찾을 수 없습니다.")
			return
		}
		logger.WithCtx(r.Context()).Error("Profile lookup failed", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}

	helpers.JSON(w, http.StatusOK, "", user.Profile())
}

// GetUsers godoc
// @Summary List accounts
// @Tags admin-users
// @Security ApiKeyAuth
// @Produce json
// @Param page query int false "Page number, starting at 1"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} helpers.Response{data=usersPage}
// @Failure 403 {object} helpers.Response
// @Router /api/admin/users [get]
func (h *AuthHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	users, total, err := h.authService.GetUsersPaginated(r.Context(), pageSize, offset)
	if err != nil {
		logger.WithCtx(r.Context()).Error("List users failed", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	helpers.JSON(w, http.StatusOK, "", usersPage{
		Users:    users,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}
