package services

import (
	"classcrew/internal/logger"
	"classcrew/internal/metrics"
	"classcrew/internal/models"
	"classcrew/internal/repository"
	"classcrew/internal/utils"
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

type AuthService struct {
	repo       UserRepo
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(repo UserRepo, jwtSecret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		repo:       repo,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type UserRepo interface {
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetAllUsersPaginated(ctx context.Context, limit, offset int) ([]*models.User, int, error)
	SaveRefreshToken(ctx context.Context, userID int, token string) error
	IsRefreshTokenValid(ctx context.Context, userID int, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID int, token string) error
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) RegisterUser(ctx context.Context, input *models.User, plainPassword string) error {
	log := logger.WithCtx(ctx)
	log.Info("Register user (service)", zap.String("username", input.Username))

	if utf8.RuneCountInString(plainPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	taken, err := s.repo.IsUsernameTaken(ctx, input.Username)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}
	taken, err = s.repo.IsEmailTaken(ctx, input.Email)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}

	hashed, err := utils.HashPassword(plainPassword)
	if err != nil {
		log.Error("Password hashing failed (service)", zap.Error(err))
		return err
	}

	input.FullName = strings.TrimSpace(input.FullName)
	input.Phone = utils.NormalizePhone(input.Phone)
	input.PasswordHash = hashed
	input.Role = "user"

	if err := s.repo.CreateUser(ctx, input); err != nil {
		log.Error("Create user failed (service)", zap.Error(err))
		return err
	}
	log.Info("User registered (service)", zap.Int("user_id", input.ID))
	return nil
}

func (s *AuthService) LoginUser(ctx context.Context, username, password string) (pair *TokenPair, user *models.User, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "failed"
		}
		metrics.AuthLoginsTotal.WithLabelValues(result).Inc()
	}()
	log := logger.WithCtx(ctx)

	user, err = s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Login for unknown user (service)", zap.String("username", username))
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		log.Warn("Wrong password (service)", zap.Int("user_id", user.ID))
		return nil, nil, ErrInvalidCredentials
	}

	pair, err = s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	log.Info("User logged in (service)", zap.Int("user_id", user.ID))
	return pair, user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := utils.GenerateToken(s.jwtSecret, user.ID, user.Role, s.accessTTL, utils.TokenTypeAccess)
	if err != nil {
		logger.Log.Error("Access token generation failed", zap.Error(err))
		return nil, err
	}
	refresh, err := utils.GenerateToken(s.jwtSecret, user.ID, user.Role, s.refreshTTL, utils.TokenTypeRefresh)
	if err != nil {
		logger.Log.Error("Refresh token generation failed", zap.Error(err))
		return nil, err
	}
	if err := s.repo.SaveRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh trades an allow-listed refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := utils.ParseToken(s.jwtSecret, refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		logger.WithCtx(ctx).Warn("Refresh token rejected (service)", zap.Error(err))
		return "", ErrInvalidRefreshToken
	}

	ok, err := s.repo.IsRefreshTokenValid(ctx, claims.UserID, refreshToken)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidRefreshToken
	}

	return utils.GenerateToken(s.jwtSecret, claims.UserID, claims.Role, s.accessTTL, utils.TokenTypeAccess)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := utils.ParseToken(s.jwtSecret, refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	logger.WithCtx(ctx).Info("Logout (service)", zap.Int("user_id", claims.UserID))
	return s.repo.DeleteRefreshToken(ctx, claims.UserID, refreshToken)
}

func (s *AuthService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *AuthService) GetUsersPaginated(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	return s.repo.GetAllUsersPaginated(ctx, limit, offset)
}
