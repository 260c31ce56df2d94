package repository

import (
	"classcrew/internal/logger"
	"classcrew/internal/models"
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, full_name, phone, email, password_hash, role, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.FullName,
		&u.Phone,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	logger.Log.Info("Create user (repo)", zap.String("username", user.Username))
	query := `
	INSERT INTO users (username, full_name, phone, email, password_hash, role)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		user.Username,
		user.FullName,
		user.Phone,
		user.Email,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		logger.Log.Error("Username uniqueness check failed (repo)", zap.Error(err))
	}
	return exists, err
}

func (r *UserRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&exists)
	if err != nil {
		logger.Log.Error("Email uniqueness check failed (repo)", zap.Error(err))
	}
	return exists, err
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	logger.Log.Debug("Get user by username (repo)", zap.String("username", username))
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	logger.Log.Debug("Get user by id (repo)", zap.Int("user_id", id))
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByNameAndPhone matches the display name and the normalized phone exactly.
// LIMIT 2 lets an ambiguous identity be treated like a missing one.
func (r *UserRepository) FindByNameAndPhone(ctx context.Context, fullName, phone string) (*models.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE full_name = $1 AND phone = $2 ORDER BY id LIMIT 2`,
		fullName, phone,
	)
	if err != nil {
		logger.Log.Error("Lookup by name and phone failed (repo)", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var found []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(found) != 1 {
		if len(found) > 1 {
			logger.Log.Warn("Several accounts share name and phone (repo)", zap.Int("user_id", found[0].ID))
		}
		return nil, ErrNotFound
	}
	return found[0], nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		logger.Log.Error("Password update failed (repo)", zap.Int("user_id", userID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) GetAllUsersPaginated(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		logger.Log.Error("Count users failed (repo)", zap.Error(err))
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		logger.Log.Error("List users failed (repo)", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*models.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			logger.Log.Error("Scan user failed (repo)", zap.Error(err))
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) SaveRefreshToken(ctx context.Context, userID int, token string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO refresh_tokens (user_id, token) VALUES ($1, $2)`, userID, token)
	if err != nil {
		logger.Log.Error("Save refresh token failed (repo)", zap.Error(err))
	}
	return err
}

func (r *UserRepository) IsRefreshTokenValid(ctx context.Context, userID int, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM refresh_tokens WHERE user_id = $1 AND token = $2)`,
		userID, token,
	).Scan(&exists)
	if err != nil {
		logger.Log.Error("Refresh token check failed (repo)", zap.Error(err))
	}
	return exists, err
}

func (r *UserRepository) DeleteRefreshToken(ctx context.Context, userID int, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		logger.Log.Error("Delete refresh token failed (repo)", zap.Error(err))
	}
	return err
}

// DeleteRefreshTokens logs the user out everywhere; used after a password reset.
func (r *UserRepository) DeleteRefreshTokens(ctx context.Context, userID int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}
