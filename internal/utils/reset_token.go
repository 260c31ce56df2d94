package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const PurposePasswordReset = "password_reset"

var (
	ErrResetTokenInvalid = errors.New("reset token is invalid")
	ErrSignerMisconfig   = errors.New("reset token signer has no secret")
)

type ResetClaims struct {
	UserID  int    `json:"user_id"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// ResetTokenSigner issues and checks purpose-scoped, self-expiring tokens.
// Now is overridable so expiry can be tested without waiting.
type ResetTokenSigner struct {
	secret []byte
	ttl    time.Duration
	Now    func() time.Time
}

func NewResetTokenSigner(secret string, ttl time.Duration) *ResetTokenSigner {
	return &ResetTokenSigner{secret: []byte(secret), ttl: ttl, Now: time.Now}
}

func (s *ResetTokenSigner) Sign(userID int, purpose string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrSignerMisconfig
	}
	now := s.Now()
	claims := ResetClaims{
		UserID:  userID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, expiry and purpose and returns the embedded user id.
func (s *ResetTokenSigner) Verify(tokenString, purpose string) (int, error) {
	if len(s.secret) == 0 {
		return 0, ErrSignerMisconfig
	}
	claims := &ResetClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrResetTokenInvalid, err)
	}
	if claims.Purpose != purpose {
		return 0, fmt.Errorf("%w: purpose %q", ErrResetTokenInvalid, claims.Purpose)
	}
	if claims.UserID == 0 {
		return 0, fmt.Errorf("%w: no user", ErrResetTokenInvalid)
	}
	return claims.UserID, nil
}

// HashToken is what gets persisted instead of the token itself.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
