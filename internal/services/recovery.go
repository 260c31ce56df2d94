package services

import (
	"classcrew/internal/logger"
	"classcrew/internal/metrics"
	"classcrew/internal/models"
	"classcrew/internal/repository"
	"classcrew/internal/sms"
	"classcrew/internal/utils"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minPasswordLength = 8
	maxCASRetries     = 3
)

// AccountStore is the slice of the user repository the recovery flow needs.
type AccountStore interface {
	FindByNameAndPhone(ctx context.Context, fullName, phone string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
}

// refreshRevoker is optionally implemented by the AccountStore.
type refreshRevoker interface {
	DeleteRefreshTokens(ctx context.Context, userID int) error
}

type TokenSigner interface {
	Sign(userID int, purpose string) (string, error)
	Verify(token, purpose string) (int, error)
}

// RecoveryService runs the find-password flow: Initiate sends a code by SMS,
// Verify trades the code for a reset token, ResetPassword spends the token.
type RecoveryService struct {
	accounts AccountStore
	sessions repository.RecoverySessionRepo
	sender   sms.Sender
	signer   TokenSigner

	// overridable in tests
	Now          func() time.Time
	GenerateCode func() (string, error)
	NewSessionID func() string
}

func NewRecoveryService(
	accounts AccountStore,
	sessions repository.RecoverySessionRepo,
	sender sms.Sender,
	signer TokenSigner,
) *RecoveryService {
	return &RecoveryService{
		accounts:     accounts,
		sessions:     sessions,
		sender:       sender,
		signer:       signer,
		Now:          time.Now,
		GenerateCode: utils.GenerateVerificationCode,
		NewSessionID: uuid.NewString,
	}
}

// Initiate looks the account up by display name and phone, replaces any
// previous session for it and texts a fresh code. The code is never returned.
func (s *RecoveryService) Initiate(ctx context.Context, name, phone string) (resp *models.InitiateRecoveryResponse, err error) {
	defer func() { metrics.ObserveRecovery("initiate", resultLabel(err)) }()
	log := logger.WithCtx(ctx)

	phone = utils.NormalizePhone(phone)

	user, err := s.accounts.FindByNameAndPhone(ctx, name, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Recovery identity not found (service)")
			return nil, ErrIdentityNotFound
		}
		log.Error("Recovery identity lookup failed (service)", zap.Error(err))
		return nil, err
	}

	if err := s.sessions.DeleteByUserID(ctx, user.ID); err != nil {
		return nil, err
	}

	code, err := s.GenerateCode()
	if err != nil {
		log.Error("Verification code generation failed (service)", zap.Error(err))
		return nil, err
	}

	session := &models.RecoverySession{
		ID:        s.NewSessionID(),
		UserID:    user.ID,
		Code:      code,
		Phone:     phone,
		ExpiresAt: s.Now().Add(models.RecoveryCodeTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.sender.Send(ctx, phone, code); err != nil {
		log.Error("Verification SMS failed (service)",
			zap.Int("user_id", user.ID),
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("send verification code: %w", err)
	}

	log.Info("Recovery session started (service)",
		zap.Int("user_id", user.ID),
		zap.String("session_id", session.ID),
		zap.Time("expires_at", session.ExpiresAt),
	)
	return &models.InitiateRecoveryResponse{
		SessionID: session.ID,
		ExpiresIn: int(models.RecoveryCodeTTL / time.Second),
	}, nil
}

// Verify checks the submitted code. The checks run in a fixed order and each
// call either burns one attempt or marks the session verified, never both.
// A verified session can be verified again; that issues a new token and
// invalidates the previous one.
func (s *RecoveryService) Verify(ctx context.Context, sessionID, code string) (resp *models.VerifyRecoveryResponse, err error) {
	defer func() { metrics.ObserveRecovery("verify", resultLabel(err)) }()

	for i := 0; i < maxCASRetries; i++ {
		resp, err = s.verifyOnce(ctx, sessionID, code)
		if !errors.Is(err, repository.ErrConflict) {
			return resp, err
		}
		logger.WithCtx(ctx).Warn("Recovery session changed during verify, retrying (service)",
			zap.String("session_id", sessionID),
			zap.Int("try", i+1),
		)
	}
	return nil, ErrConcurrentUpdate
}

func (s *RecoveryService) verifyOnce(ctx context.Context, sessionID, code string) (*models.VerifyRecoveryResponse, error) {
	log := logger.WithCtx(ctx).With(zap.String("session_id", sessionID))

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Unknown recovery session (service)")
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	switch {
	case session.ExpiredAt(s.Now()):
		log.Warn("Recovery session expired (service)")
		return nil, ErrSessionExpired
	case session.Used:
		log.Warn("Recovery session already used (service)")
		return nil, ErrSessionUsed
	case session.Attempts >= models.RecoveryMaxAttempts:
		log.Warn("Recovery attempts exhausted (service)", zap.Int("attempts", session.Attempts))
		return nil, ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(session.Code)) != 1 {
		session.Attempts++
		if err := s.sessions.Update(ctx, session); err != nil {
			return nil, err
		}
		log.Warn("Verification code mismatch (service)", zap.Int("attempts", session.Attempts))
		return nil, &CodeMismatchError{Remaining: session.AttemptsRemaining()}
	}

	user, err := s.accounts.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Account behind recovery session is gone (service)", zap.Int("user_id", session.UserID))
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	token, err := s.signer.Sign(user.ID, utils.PurposePasswordReset)
	if err != nil {
		log.Error("Reset token signing failed (service)", zap.Error(err))
		return nil, err
	}
	hash := utils.HashToken(token)

	session.Verified = true
	session.ResetTokenHash = &hash
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	log.Info("Recovery session verified (service)", zap.Int("user_id", user.ID))
	return &models.VerifyRecoveryResponse{
		ResetToken: token,
		UserID:     user.ID,
		Username:   user.Username,
	}, nil
}

// ResetPassword spends a reset token. Both the session expiry and the token's
// own expiry have to hold.
func (s *RecoveryService) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer func() { metrics.ObserveRecovery("reset", resultLabel(err)) }()
	log := logger.WithCtx(ctx)

	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		log.Warn("New password too short (service)")
		return ErrWeakPassword
	}

	session, err := s.sessions.GetVerifiedByTokenHash(ctx, utils.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("No open verified session for reset token (service)")
			return ErrInvalidRequest
		}
		return err
	}
	log = log.With(zap.String("session_id", session.ID), zap.Int("user_id", session.UserID))

	if session.ExpiredAt(s.Now()) {
		log.Warn("Recovery session expired before reset (service)")
		return ErrSessionExpired
	}

	userID, err := s.signer.Verify(token, utils.PurposePasswordReset)
	if err != nil {
		if errors.Is(err, utils.ErrResetTokenInvalid) {
			log.Warn("Reset token rejected (service)", zap.Error(err))
			return ErrInvalidToken
		}
		log.Error("Reset token verification failed (service)", zap.Error(err))
		return err
	}
	if userID != session.UserID {
		log.Warn("Reset token belongs to another account (service)", zap.Int("token_user_id", userID))
		return ErrInvalidToken
	}

	pwHash, err := utils.HashPassword(newPassword)
	if err != nil {
		log.Error("Password hashing failed (service)", zap.Error(err))
		return err
	}

	// The claim and the password write commit together.
	if err := s.sessions.CompleteReset(ctx, session, pwHash); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			log.Warn("Recovery session consumed concurrently (service)")
			return ErrInvalidRequest
		case errors.Is(err, repository.ErrNotFound):
			log.Warn("Account behind recovery session is gone (service)")
			return ErrInvalidRequest
		}
		log.Error("Password reset failed (service)", zap.Error(err))
		return err
	}

	if rr, ok := s.accounts.(refreshRevoker); ok {
		if err := rr.DeleteRefreshTokens(ctx, session.UserID); err != nil {
			log.Warn("Could not revoke refresh tokens after reset (service)", zap.Error(err))
		}
	}

	log.Info("Password reset via recovery (service)")
	return nil
}

// PurgeExpired removes sessions past their expiry. Called by the background cleaner.
func (s *RecoveryService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.Now())
	if err != nil {
		logger.Log.Error("Purging expired recovery sessions failed (service)", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		metrics.RecoverySessionsPurgedTotal.Add(float64(n))
		logger.Log.Info("Expired recovery sessions purged (service)", zap.Int64("count", n))
	}
	return n, nil
}
