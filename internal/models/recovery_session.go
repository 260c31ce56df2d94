package models

import "time"

const (
	RecoveryCodeTTL     = 15 * time.Minute
	RecoveryTokenTTL    = 30 * time.Minute
	RecoveryMaxAttempts = 5
)

// RecoverySession tracks one in-flight password recovery attempt.
// Used and Verified only ever go from false to true; ResetTokenHash is set iff Verified.
type RecoverySession struct {
	ID             string    `json:"id"`
	UserID         int       `json:"user_id"`
	Code           string    `json:"-"`
	Phone          string    `json:"phone"`
	ExpiresAt      time.Time `json:"expires_at"`
	Used           bool      `json:"used"`
	Verified       bool      `json:"verified"`
	Attempts       int       `json:"attempts"`
	ResetTokenHash *string   `json:"-"`
	Version        int       `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *RecoverySession) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *RecoverySession) AttemptsRemaining() int {
	if left := RecoveryMaxAttempts - s.Attempts; left > 0 {
		return left
	}
	return 0
}
