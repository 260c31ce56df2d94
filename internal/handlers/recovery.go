package handlers

import (
	"classcrew/internal/logger"
	"classcrew/internal/models"
	"classcrew/internal/services"
	helpers "classcrew/internal/utils/helpers"
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type recoveryService interface {
	Initiate(ctx context.Context, name, phone string) (*models.InitiateRecoveryResponse, error)
	Verify(ctx context.Context, sessionID, code string) (*models.VerifyRecoveryResponse, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type RecoveryHandler struct {
	svc recoveryService
}

func NewRecoveryHandler(svc recoveryService) *RecoveryHandler {
	return &RecoveryHandler{svc: svc}
}

// Initiate godoc
// @Summary Start password recovery
// @Description Looks the account up by name and phone and texts a 6-digit code. The code is never returned.
// @Tags password
// @Accept json
// @Produce json
// @Param input body models.InitiateRecoveryRequest true "Name and phone number"
// @Success 200 {object} helpers.Response{data=models.InitiateRecoveryResponse}
// @Failure 400 {object} helpers.Response
// @Failure 404 {object} helpers.Response
// @Router /api/password/recovery/initiate [post]
func (h *RecoveryHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req models.InitiateRecoveryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WithCtx(r.Context()).Warn("Invalid payload in recovery initiate", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	resp, err := h.svc.Initiate(r.Context(), req.Name, req.PhoneNumber)
	if err != nil {
		writeRecoveryError(w, r, err)
		return
	}

	helpers.JSON(w, http.StatusOK, "인증번호가 발송되었습니다.", resp)
}

// Verify godoc
// @Summary Verify recovery code
// @Description Exchanges the SMS code for a 30-minute password reset token.
// @Tags password
// @Accept json
// @Produce json
// @Param input body models.VerifyRecoveryRequest true "Session id and code"
// @Success 200 {object} helpers.Response{data=models.VerifyRecoveryResponse}
// @Failure 400 {object} helpers.Response
// @Failure 429 {object} helpers.Response
// @Router /api/password/recovery/verify [post]
func (h *RecoveryHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRecoveryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WithCtx(r.Context()).Warn("Invalid payload in recovery verify", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	resp, err := h.svc.Verify(r.Context(), req.SessionID, req.VerificationCode)
	if err != nil {
		writeRecoveryError(w, r, err)
		return
	}

	helpers.JSON(w, http.StatusOK, "본인 인증이 완료되었습니다.", resp)
}

// Reset godoc
// @Summary Reset password with a reset token
// @Tags password
// @Accept json
// @Produce json
// @Param input body models.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} helpers.Response
// @Failure 400 {object} helpers.Response
// @Router /api/password/recovery/reset [post]
func (h *RecoveryHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WithCtx(r.Context()).Warn("Invalid payload in recovery reset", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.ResetToken, req.NewPassword); err != nil {
		writeRecoveryError(w, r, err)
		return
	}

	helpers.JSON(w, http.StatusOK, "비밀번호가 변경되었습니다.", nil)
}

const (
	msgInvalidPayload = "잘못된 요청 형식입니다."
	msgInternal       = "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
)

// writeRecoveryError maps expected recovery outcomes to a status and a message
// that never carries internal detail. Anything unexpected becomes a 500.
func writeRecoveryError(w http.ResponseWriter, r *http.Request, err error) {
	var mismatch *services.CodeMismatchError
	switch {
	case errors.As(err, &mismatch):
		helpers.ErrorWithData(w, http.StatusBadRequest,
			fmt.Sprintf("인증번호가 일치하지 않습니다. (남은 시도: %d회)", mismatch.Remaining),
			models.CodeMismatchResponse{AttemptsRemaining: mismatch.Remaining},
		)
	case errors.Is(err, services.ErrIdentityNotFound):
		helpers.Error(w, http.StatusNotFound, "입력하신 정보로 가입된 계정을 찾을 수 없습니다.")
	case errors.Is(err, services.ErrInvalidSession):
		helpers.Error(w, http.StatusBadRequest, "유효하지 않은 인증 요청입니다.")
	case errors.Is(err, services.ErrSessionExpired):
		helpers.Error(w, http.StatusBadRequest, "인증 시간이 만료되었습니다. 처음부터 다시 시도해주세요.")
	case errors.Is(err, services.ErrSessionUsed):
		helpers.Error(w, http.StatusBadRequest, "이미 사용된 인증 요청입니다.")
	case errors.Is(err, services.ErrTooManyAttempts):
		helpers.Error(w, http.StatusTooManyRequests, "인증 시도 횟수를 초과했습니다. 처음부터 다시 시도해주세요.")
	case errors.Is(err, services.ErrWeakPassword):
		helpers.Error(w, http.StatusBadRequest, "비밀번호는 8자 이상이어야 합니다.")
	case errors.Is(err, services.ErrInvalidRequest):
		helpers.Error(w, http.StatusBadRequest, "유효하지 않은 요청입니다.")
	case errors.Is(err, services.ErrInvalidToken):
		helpers.Error(w, http.StatusBadRequest, "유효하지 않거나 만료된 토큰입니다.")
	default:
		logger.WithCtx(r.Context()).Error("Recovery request failed", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, msgInternal)
	}
}
