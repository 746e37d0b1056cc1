package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lib/pq"
)

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

var validRoles = map[string]bool{
	models.RoleAdmin: true,
	models.RoleStaff: true,
	models.RoleGuest: true,
}

const userColumns = `id, email, password_hash, roles, last_login_at, created_at, updated_at`

// CreateUser creates a new user with the given roles. Returns ErrDuplicate when
// the email is taken.
func (r *UserRepository) CreateUser(email, passwordHash string, roles ...string) (*models.User, error) {
	if len(roles) == 0 {
		roles = []string{models.RoleGuest}
	}
	for _, role := range roles {
		if !validRoles[role] {
			return nil, fmt.Errorf("invalid role: %s", role)
		}
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        roles,
	}

	query := `
		INSERT INTO users (id, email, password_hash, roles)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		user.ID,
		user.Email,
		user.PasswordHash,
		pq.Array(user.Roles),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", translateError(err))
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email. Returns nil, nil when not found.
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	if err := r.db.Get(&user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID. Returns nil, nil when not found.
func (r *UserRepository) GetUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	if err := r.db.Get(&user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// UpdateLastLogin stamps a successful login
func (r *UserRepository) UpdateLastLogin(id uuid.UUID) error {
	query := `UPDATE users SET last_login_at = $1 WHERE id = $2`

	if _, err := r.db.Exec(query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.Exec(query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectOneRow(result)
}

// ===========================================================================
// PROFILES
// ===========================================================================

// GetProfile retrieves the profile for a user. Returns an empty profile when none is stored.
func (r *UserRepository) GetProfile(userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	query := `
		SELECT user_id, first_name, last_name, phone, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`

	if err := r.db.Get(&profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.UserProfile{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// UpsertProfile creates or replaces the profile for a user
func (r *UserRepository) UpsertProfile(profile *models.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, first_name, last_name, phone, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    phone = EXCLUDED.phone,
		    updated_at = NOW()
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		profile.UserID,
		profile.FirstName,
		profile.LastName,
		profile.Phone,
	).Scan(&profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", translateError(err))
	}
	return nil
}
