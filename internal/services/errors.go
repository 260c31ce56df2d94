package services

import (
	"errors"
	"fmt"
)

// Recovery outcomes. Each one is an expected, user-facing condition.
var (
	ErrIdentityNotFound = errors.New("identity info could not be found")
	ErrInvalidSession   = errors.New("invalid recovery session")
	ErrSessionExpired   = errors.New("recovery session expired")
	ErrSessionUsed      = errors.New("recovery session already used")
	ErrTooManyAttempts  = errors.New("too many verification attempts")
	ErrCodeMismatch     = errors.New("verification code mismatch")
	ErrWeakPassword     = errors.New("password too short")
	ErrInvalidRequest   = errors.New("invalid reset request")
	ErrInvalidToken     = errors.New("invalid reset token")
)

// ErrConcurrentUpdate is not user-facing: the session kept changing under us.
var ErrConcurrentUpdate = errors.New("recovery session modified concurrently")

// Account outcomes.
var (
	ErrUsernameTaken        = errors.New("username already taken")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrOldPasswordIncorrect = errors.New("old password incorrect")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrUserNotFound         = errors.New("user not found")
)

// CodeMismatchError reports how many verification attempts are left.
// errors.Is(err, ErrCodeMismatch) holds for it.
type CodeMismatchError struct {
	Remaining int
}

func (e *CodeMismatchError) Error() string {
	return fmt.Sprintf("%s: %d attempts remaining", ErrCodeMismatch, e.Remaining)
}

func (e *CodeMismatchError) Is(target error) bool {
	return target == ErrCodeMismatch
}

// resultLabel turns an outcome into a bounded metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrIdentityNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidSession):
		return "invalid_session"
	case errors.Is(err, ErrSessionExpired):
		return "expired"
	case errors.Is(err, ErrSessionUsed):
		return "already_used"
	case errors.Is(err, ErrTooManyAttempts):
		return "rate_limited"
	case errors.Is(err, ErrCodeMismatch):
		return "code_mismatch"
	case errors.Is(err, ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "error"
	}
}
