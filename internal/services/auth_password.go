package services

import (
	"classcrew/internal/logger"
	"classcrew/internal/repository"
	"classcrew/internal/utils"
	"context"
	"errors"
	"unicode/utf8"

	"go.uber.org/zap"
)

// PasswordService changes the password of a logged-in user.
type PasswordService struct {
	repo AccountStore
}

func NewPasswordService(repo AccountStore) *PasswordService {
	return &PasswordService{repo: repo}
}

func (s *PasswordService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	log := logger.WithCtx(ctx).With(zap.Int("user_id", userID))
	log.Info("Change password (service)")

	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		log.Warn("New password too short (service)")
		return ErrWeakPassword
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !utils.CheckPasswordHash(oldPassword, user.PasswordHash) {
		log.Warn("Old password does not match (service)")
		return ErrOldPasswordIncorrect
	}

	newHash, err := utils.HashPassword(newPassword)
	if err != nil {
		log.Error("Password hashing failed (service)", zap.Error(err))
		return err
	}

	if err := s.repo.UpdatePassword(ctx, userID, newHash); err != nil {
		log.Error("Password update failed (service)", zap.Error(err))
		return err
	}

	log.Info("Password changed (service)")
	return nil
}
