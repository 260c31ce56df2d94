package repository

import (
	"classcrew/internal/logger"
	"classcrew/internal/models"
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type RecoverySessionRepository struct {
	db *pgxpool.Pool
}

func NewRecoverySessionRepository(db *pgxpool.Pool) *RecoverySessionRepository {
	return &RecoverySessionRepository{db: db}
}

type RecoverySessionRepo interface {
	DeleteByUserID(ctx context.Context, userID int) error
	Create(ctx context.Context, s *models.RecoverySession) error
	GetByID(ctx context.Context, id string) (*models.RecoverySession, error)
	GetVerifiedByTokenHash(ctx context.Context, tokenHash string) (*models.RecoverySession, error)
	Update(ctx context.Context, s *models.RecoverySession) error
	CompleteReset(ctx context.Context, s *models.RecoverySession, passwordHash string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

const sessionColumns = `id::text, user_id, code, phone, expires_at, used, verified, attempts, reset_token_hash, version, created_at`

func scanSession(row interface{ Scan(dest ...any) error }) (*models.RecoverySession, error) {
	var s models.RecoverySession
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Code,
		&s.Phone,
		&s.ExpiresAt,
		&s.Used,
		&s.Verified,
		&s.Attempts,
		&s.ResetTokenHash,
		&s.Version,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *RecoverySessionRepository) DeleteByUserID(ctx context.Context, userID int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM recovery_sessions WHERE user_id = $1`, userID)
	if err != nil {
		logger.Log.Error("Delete recovery sessions failed (repo)", zap.Int("user_id", userID), zap.Error(err))
		return err
	}
	if n := tag.RowsAffected(); n > 0 {
		logger.Log.Debug("Superseded recovery sessions (repo)", zap.Int("user_id", userID), zap.Int64("count", n))
	}
	return nil
}

func (r *RecoverySessionRepository) Create(ctx context.Context, s *models.RecoverySession) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO recovery_sessions (id, user_id, code, phone, expires_at, used, verified, attempts, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)
		RETURNING version, created_at`,
		s.ID, s.UserID, s.Code, s.Phone, s.ExpiresAt, s.Used, s.Verified, s.Attempts,
	).Scan(&s.Version, &s.CreatedAt)
	if err != nil {
		logger.Log.Error("Create recovery session failed (repo)", zap.Int("user_id", s.UserID), zap.Error(err))
	}
	return err
}

func (r *RecoverySessionRepository) GetByID(ctx context.Context, id string) (*models.RecoverySession, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM recovery_sessions WHERE id::text = $1`, id)
	return scanSession(row)
}

// GetVerifiedByTokenHash only sees sessions that passed verification and were not consumed yet.
func (r *RecoverySessionRepository) GetVerifiedByTokenHash(ctx context.Context, tokenHash string) (*models.RecoverySession, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM recovery_sessions
		WHERE reset_token_hash = $1
		  AND used = false
		  AND verified = true
	`, tokenHash)
	return scanSession(row)
}

// Update writes the mutable fields only if nobody else wrote the row since it was read,
// and bumps s.Version on success.
func (r *RecoverySessionRepository) Update(ctx context.Context, s *models.RecoverySession) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE recovery_sessions
		SET used = $1, verified = $2, attempts = $3, reset_token_hash = $4, version = version + 1
		WHERE id = $5 AND version = $6`,
		s.Used, s.Verified, s.Attempts, s.ResetTokenHash, s.ID, s.Version,
	)
	if err != nil {
		logger.Log.Error("Update recovery session failed (repo)", zap.String("session_id", s.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	s.Version++
	return nil
}

// CompleteReset marks the session used and stores the new password hash in one
// transaction. If the session changed since it was read nothing is written and
// ErrConflict is returned; a failed password write rolls the claim back.
func (r *RecoverySessionRepository) CompleteReset(ctx context.Context, s *models.RecoverySession, passwordHash string) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE recovery_sessions
			SET used = true, version = version + 1
			WHERE id = $1 AND version = $2 AND used = false`,
			s.ID, s.Version,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}

		tag, err = tx.Exec(ctx,
			`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
			passwordHash, s.UserID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		logger.Log.Warn("Complete reset rolled back (repo)", zap.String("session_id", s.ID), zap.Error(err))
		return err
	}
	s.Used = true
	s.Version++
	return nil
}

func (r *RecoverySessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM recovery_sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
