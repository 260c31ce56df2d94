package handlers

import (
	"classcrew/internal/logger"
	"classcrew/internal/reqctx"
	"classcrew/internal/services"
	helpers "classcrew/internal/utils/helpers"
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type passwordChanger interface {
	ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error
}

type PasswordHandler struct {
	svc passwordChanger
}

func NewPasswordHandler(svc passwordChanger) *PasswordHandler {
	return &PasswordHandler{svc: svc}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Change godoc
// @Summary Change password of the logged-in user
// @Tags password
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body changePasswordRequest true "Old and new password"
// @Success 200 {object} helpers.Response
// @Failure 400 {object} helpers.Response
// @Failure 401 {object} helpers.Response
// @Router /api/password/change [post]
func (h *PasswordHandler) Change(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, ok := reqctx.GetUserID(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "인증이 필요합니다.")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Warn("Invalid payload in Change", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	err := h.svc.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		helpers.JSON(w, http.StatusOK, "비밀번호가 변경되었습니다.", nil)
	case errors.Is(err, services.ErrWeakPassword):
		helpers.Error(w, http.StatusBadRequest, "비밀번호는 8자 이상이어야 합니다.")
	case errors.Is(err, services.ErrOldPasswordIncorrect):
		helpers.Error(w, http.StatusBadRequest, "현재 비밀번호가 올바르지 않습니다.")
	case errors.Is(err, services.ErrUserNotFound):
		helpers.Error(w, http.StatusNotFound, "사용자를 찾을 수 없습니다.")
	default:
		log.Error("Change password failed", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, msgInternal)
	}
}
