package models

type InitiateRecoveryRequest struct {
	Name        string `json:"name" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

type InitiateRecoveryResponse struct {
	SessionID string `json:"sessionId"`
	ExpiresIn int    `json:"expiresIn"`
}

type VerifyRecoveryRequest struct {
	SessionID        string `json:"sessionId" validate:"required"`
	VerificationCode string `json:"verificationCode"`
}

type VerifyRecoveryResponse struct {
	ResetToken string `json:"resetToken"`
	UserID     int    `json:"userId"`
	Username   string `json:"username"`
}

type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken" validate:"required"`
	NewPassword string `json:"newPassword"`
}

type CodeMismatchResponse struct {
	AttemptsRemaining int `json:"attemptsRemaining"`
}
