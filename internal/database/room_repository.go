package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lagoonresort/reservation-backend/internal/models"
)

// RoomRepository handles room database operations
type RoomRepository struct {
	db DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db DB) *RoomRepository {
	return &RoomRepository{
		db: db,
	}
}

const roomColumns = `
	id, name, category, capacity, base_price_cents, dynamic_price_cents,
	is_available, description, created_at, updated_at
`

// Create inserts a room and fills in its generated fields
func (r *RoomRepository) Create(room *models.Room) error {
	query := `
		INSERT INTO rooms (
			name, category, capacity, base_price_cents, dynamic_price_cents,
			is_available, description
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		room.Name,
		room.Category,
		room.Capacity,
		room.BasePriceCents,
		room.DynamicPriceCents,
		room.IsAvailable,
		room.Description,
	).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a room by ID. Returns nil, nil when the room does not exist.
func (r *RoomRepository) GetByID(id int64) (*models.Room, error) {
	var room models.Room
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	err := r.db.Get(&room, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return &room, nil
}

// List retrieves all rooms ordered by name
func (r *RoomRepository) List() ([]models.Room, error) {
	rooms := []models.Room{}
	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY name`

	if err := r.db.Select(&rooms, query); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	return rooms, nil
}

// ListAvailable retrieves in-service rooms that have no Pending or Confirmed
// booking overlapping [checkIn, checkOut) and can hold at least minCapacity guests.
func (r *RoomRepository) ListAvailable(checkIn, checkOut time.Time, minCapacity int) ([]models.Room, error) {
	rooms := []models.Room{}
	query := `
		SELECT ` + roomColumns + `
		FROM rooms r
		WHERE r.is_available = TRUE
		  AND r.capacity >= $3
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.room_id = r.id
			  AND b.status IN ('Pending', 'Confirmed')
			  AND b.check_in < $2
			  AND b.check_out > $1
		  )
		ORDER BY r.base_price_cents, r.name
	`

	if err := r.db.Select(&rooms, query, checkIn, checkOut, minCapacity); err != nil {
		return nil, fmt.Errorf("failed to list available rooms: %w", err)
	}

	return rooms, nil
}

// Update saves the mutable room fields
func (r *RoomRepository) Update(room *models.Room) error {
	query := `
		UPDATE rooms
		SET name = $1, category = $2, capacity = $3, base_price_cents = $4,
		    is_available = $5, description = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		room.Name,
		room.Category,
		room.Capacity,
		room.BasePriceCents,
		room.IsAvailable,
		room.Description,
		room.ID,
	).Scan(&room.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("failed to update room: %w", translateError(err))
	}

	return nil
}

// UpdateDynamicPrice stores a recalculated nightly price
func (r *RoomRepository) UpdateDynamicPrice(id int64, cents int64) error {
	query := `UPDATE rooms SET dynamic_price_cents = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.Exec(query, cents, id)
	if err != nil {
		return fmt.Errorf("failed to update dynamic price: %w", err)
	}
	return expectOneRow(result)
}

// Delete removes a room. Returns sql.ErrNoRows if it does not exist.
func (r *RoomRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", translateError(err))
	}
	return expectOneRow(result)
}

// ===========================================================================
// AMENITIES
// ===========================================================================

// AttachAmenity links an amenity to a room. Attaching twice is a no-op.
func (r *RoomRepository) AttachAmenity(roomID, amenityID int64) error {
	query := `
		INSERT INTO room_amenities (room_id, amenity_id)
		VALUES ($1, $2)
		ON CONFLICT (room_id, amenity_id) DO NOTHING
	`

	if _, err := r.db.Exec(query, roomID, amenityID); err != nil {
		return fmt.Errorf("failed to attach amenity: %w", translateError(err))
	}
	return nil
}

// DetachAmenity unlinks an amenity from a room
func (r *RoomRepository) DetachAmenity(roomID, amenityID int64) error {
	result, err := r.db.Exec(
		`DELETE FROM room_amenities WHERE room_id = $1 AND amenity_id = $2`,
		roomID, amenityID,
	)
	if err != nil {
		return fmt.Errorf("failed to detach amenity: %w", err)
	}
	return expectOneRow(result)
}

// ListAmenities retrieves the amenities linked to a room
func (r *RoomRepository) ListAmenities(roomID int64) ([]models.Amenity, error) {
	amenities := []models.Amenity{}
	query := `
		SELECT a.id, a.name, a.description, a.created_at
		FROM amenities a
		JOIN room_amenities ra ON ra.amenity_id = a.id
		WHERE ra.room_id = $1
		ORDER BY a.name
	`

	if err := r.db.Select(&amenities, query, roomID); err != nil {
		return nil, fmt.Errorf("failed to list room amenities: %w", err)
	}
	return amenities, nil
}

// expectOneRow turns a zero-row result into sql.ErrNoRows
func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
