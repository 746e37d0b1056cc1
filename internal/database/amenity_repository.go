package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lagoonresort/reservation-backend/internal/models"
)

// AmenityRepository handles amenity database operations
type AmenityRepository struct {
	db DB
}

// NewAmenityRepository creates a new amenity repository
func NewAmenityRepository(db DB) *AmenityRepository {
	return &AmenityRepository{db: db}
}

// Create inserts an amenity
func (r *AmenityRepository) Create(amenity *models.Amenity) error {
	query := `
		INSERT INTO amenities (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query, amenity.Name, amenity.Description).
		Scan(&amenity.ID, &amenity.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create amenity: %w", translateError(err))
	}
	return nil
}

// GetByID retrieves an amenity by ID
func (r *AmenityRepository) GetByID(id int64) (*models.Amenity, error) {
	var amenity models.Amenity
	query := `SELECT id, name, description, created_at FROM amenities WHERE id = $1`

	if err := r.db.Get(&amenity, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get amenity: %w", err)
	}
	return &amenity, nil
}

// List retrieves all amenities
func (r *AmenityRepository) List() ([]models.Amenity, error) {
	amenities := []models.Amenity{}
	query := `SELECT id, name, description, created_at FROM amenities ORDER BY name`

	if err := r.db.Select(&amenities, query); err != nil {
		return nil, fmt.Errorf("failed to list amenities: %w", err)
	}
	return amenities, nil
}

// Update saves name and description
func (r *AmenityRepository) Update(amenity *models.Amenity) error {
	query := `UPDATE amenities SET name = $1, description = $2 WHERE id = $3`

	result, err := r.db.Exec(query, amenity.Name, amenity.Description, amenity.ID)
	if err != nil {
		return fmt.Errorf("failed to update amenity: %w", translateError(err))
	}
	return expectOneRow(result)
}

// Delete removes an amenity and its room links
func (r *AmenityRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM amenities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete amenity: %w", translateError(err))
	}
	return expectOneRow(result)
}
