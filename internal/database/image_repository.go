package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lagoonresort/reservation-backend/internal/models"
)

// ImageRepository handles room image database operations
type ImageRepository struct {
	db DB
}

// NewImageRepository creates a new image repository
func NewImageRepository(db DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create inserts an image
func (r *ImageRepository) Create(image *models.Image) error {
	query := `
		INSERT INTO images (room_id, url, caption)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query, image.RoomID, image.URL, image.Caption).
		Scan(&image.ID, &image.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", translateError(err))
	}
	return nil
}

// GetByID retrieves an image by ID
func (r *ImageRepository) GetByID(id int64) (*models.Image, error) {
	var image models.Image
	query := `SELECT id, room_id, url, caption, created_at FROM images WHERE id = $1`

	if err := r.db.Get(&image, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &image, nil
}

// List retrieves images, optionally restricted to one room (roomID > 0)
func (r *ImageRepository) List(roomID int64) ([]models.Image, error) {
	images := []models.Image{}
	query := `SELECT id, room_id, url, caption, created_at FROM images`
	args := []interface{}{}
	if roomID > 0 {
		query += ` WHERE room_id = $1`
		args = append(args, roomID)
	}
	query += ` ORDER BY id`

	if err := r.db.Select(&images, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

// Update saves the image fields
func (r *ImageRepository) Update(image *models.Image) error {
	query := `UPDATE images SET room_id = $1, url = $2, caption = $3 WHERE id = $4`

	result, err := r.db.Exec(query, image.RoomID, image.URL, image.Caption, image.ID)
	if err != nil {
		return fmt.Errorf("failed to update image: %w", translateError(err))
	}
	return expectOneRow(result)
}

// Delete removes an image
func (r *ImageRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return expectOneRow(result)
}
