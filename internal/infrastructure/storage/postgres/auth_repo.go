package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fletero/internal/core/apperror"
	"fletero/internal/core/id"
	"fletero/internal/domain/auth"
)

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

const userSelect = `
	SELECT id, email, password_hash, full_name, is_active,
	       last_login_at, failed_login_attempts, locked_until,
	       created_at, updated_at, version
	FROM users
`

func (r *UserRepo) scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.IsActive,
		&u.LastLoginAt, &u.FailedLoginAttempts, &u.LockedUntil,
		&u.CreatedAt, &u.UpdatedAt, &u.Version,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by id.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	row := r.txManager.GetQuerier(ctx).QueryRow(ctx, userSelect+` WHERE id = $1`, userID)

	u, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.txManager.GetQuerier(ctx).QueryRow(ctx, userSelect+` WHERE email = $1`, email)

	u, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// Exists checks whether an email is already registered.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.txManager.GetQuerier(ctx).
		QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, full_name, is_active,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.IsActive,
		user.CreatedAt, user.UpdatedAt, user.Version,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update writes a user back with optimistic locking.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	query := `
		UPDATE users SET
			full_name = $2,
			is_active = $3,
			last_login_at = $4,
			failed_login_attempts = $5,
			locked_until = $6,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $1 AND version = $7
	`

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, query,
		user.ID, user.FullName, user.IsActive, user.LastLoginAt,
		user.FailedLoginAttempts, user.LockedUntil, user.Version,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", user.ID.String())
	}

	user.Version++
	return nil
}

var _ auth.TokenRepository = (*TokenRepo)(nil)

// TokenRepo implements auth.TokenRepository.
type TokenRepo struct {
	txManager *TxManager
}

// NewTokenRepo creates a new refresh token repository.
func NewTokenRepo(txManager *TxManager) *TokenRepo {
	return &TokenRepo{txManager: txManager}
}

// SaveRefreshToken stores a refresh token hash.
func (r *TokenRepo) SaveRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken looks a token up by its hash.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at, revoked_reason
		FROM refresh_tokens
		WHERE token_hash = $1
	`

	var t auth.RefreshToken
	var revokedReason *string
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, query, tokenHash).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt,
		&t.RevokedAt, &revokedReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("refresh_token", "")
	}
	if err != nil {
		return nil, fmt.Errorf("query refresh token: %w", err)
	}
	if revokedReason != nil {
		t.RevokedReason = *revokedReason
	}
	return &t, nil
}

// RevokeRefreshToken marks one token revoked.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), revoked_reason = $2
		WHERE id = $1 AND revoked_at IS NULL
	`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, query, tokenID, reason); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens revokes every live token of a user.
func (r *TokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), revoked_reason = $2
		WHERE user_id = $1 AND revoked_at IS NULL
	`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, query, userID, reason); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}
