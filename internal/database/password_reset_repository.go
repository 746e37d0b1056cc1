package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/internal/utils"
)

// PasswordResetRepository stores one-time password reset tokens (hashed)
type PasswordResetRepository struct {
	db DB
}

// NewPasswordResetRepository creates a new password reset repository
func NewPasswordResetRepository(db DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Create stores a reset token for a user. Earlier unused tokens are invalidated.
func (r *PasswordResetRepository) Create(userID uuid.UUID, token string, expiresAt time.Time) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`UPDATE password_resets SET used_at = NOW() WHERE user_id = $1 AND used_at IS NULL`, userID)
	if err != nil {
		return fmt.Errorf("failed to invalidate previous resets: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO password_resets (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), userID, utils.HashToken(token), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store password reset: %w", err)
	}

	return tx.Commit()
}

// Consume marks a valid token as used and returns it. Returns nil, nil when the
// token is unknown, expired or already used.
func (r *PasswordResetRepository) Consume(token string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	query := `
		UPDATE password_resets
		SET used_at = NOW()
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING id, user_id, token_hash, expires_at, used_at, created_at
	`

	if err := r.db.Get(&reset, query, utils.HashToken(token), time.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to consume password reset: %w", err)
	}
	return &reset, nil
}
