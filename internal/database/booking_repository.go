package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lagoonresort/reservation-backend/internal/models"
)

// BookingRepository handles database operations for bookings table
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ErrStatusChanged is returned when a conditional status update finds the
// booking in a different state than the caller read
var ErrStatusChanged = errors.New("booking status changed")

const bookingColumns = `
	id, room_id, customer_id, check_in, check_out, nights, total_price_cents,
	status, refundable, payment_intent_id, created_at, updated_at
`

// lockRoomForStay locks the room row and fails with ErrOverlap if another
// Pending or Confirmed booking overlaps the stay. excludeBookingID lets a
// booking being re-dated ignore itself.
func lockRoomForStay(tx *sqlx.Tx, roomID int64, checkIn, checkOut time.Time, excludeBookingID int64) error {
	var lockedID int64
	err := tx.Get(&lockedID, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("failed to lock room: %w", err)
	}

	var overlapping bool
	overlapQuery := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE room_id = $1
			  AND id <> $4
			  AND status IN ('Pending', 'Confirmed')
			  AND check_in < $3
			  AND check_out > $2
		)
	`
	if err := tx.Get(&overlapping, overlapQuery, roomID, checkIn, checkOut, excludeBookingID); err != nil {
		return fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	if overlapping {
		return ErrOverlap
	}
	return nil
}

// CreateWithAvailabilityCheck inserts a Pending booking after locking the room
// and verifying no active booking overlaps the stay. A customer without an ID
// is inserted in the same transaction, so a rejected stay leaves no customer behind.
// Returns sql.ErrNoRows when the room is gone and ErrOverlap on a clash.
func (r *BookingRepository) CreateWithAvailabilityCheck(booking *models.Booking, customer *models.Customer) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRoomForStay(tx, booking.RoomID, booking.CheckIn, booking.CheckOut, 0); err != nil {
		return err
	}

	if customer.ID == 0 {
		if err := insertCustomer(tx, customer); err != nil {
			return err
		}
	}
	booking.CustomerID = customer.ID

	query := `
		INSERT INTO bookings (
			room_id, customer_id, check_in, check_out, nights,
			total_price_cents, status, refundable
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRowx(query,
		booking.RoomID,
		booking.CustomerID,
		booking.CheckIn,
		booking.CheckOut,
		booking.Nights,
		booking.TotalPriceCents,
		booking.Status,
		booking.Refundable,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", translateError(err))
	}

	return nil
}

// UpdateDatesWithAvailabilityCheck re-dates and re-prices a Pending booking
func (r *BookingRepository) UpdateDatesWithAvailabilityCheck(booking *models.Booking) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRoomForStay(tx, booking.RoomID, booking.CheckIn, booking.CheckOut, booking.ID); err != nil {
		return err
	}

	query := `
		UPDATE bookings
		SET check_in = $1, check_out = $2, nights = $3, total_price_cents = $4, updated_at = NOW()
		WHERE id = $5 AND status = 'Pending'
		RETURNING updated_at
	`

	err = tx.QueryRowx(query,
		booking.CheckIn,
		booking.CheckOut,
		booking.Nights,
		booking.TotalPriceCents,
		booking.ID,
	).Scan(&booking.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStatusChanged
		}
		return fmt.Errorf("failed to update booking dates: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", translateError(err))
	}
	return nil
}

// GetByID retrieves a booking by ID. Returns nil, nil when not found.
func (r *BookingRepository) GetByID(id int64) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	if err := r.db.Get(&booking, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// bookingFilterClause renders the WHERE clause for a filter
func bookingFilterClause(filter models.BookingFilter, prefix string) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("%sstatus = $%d", prefix, len(args)))
	}
	if filter.RoomID > 0 {
		args = append(args, filter.RoomID)
		conditions = append(conditions, fmt.Sprintf("%sroom_id = $%d", prefix, len(args)))
	}
	if filter.CustomerID > 0 {
		args = append(args, filter.CustomerID)
		conditions = append(conditions, fmt.Sprintf("%scustomer_id = $%d", prefix, len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List retrieves bookings matching the filter, newest first
func (r *BookingRepository) List(filter models.BookingFilter) ([]models.Booking, error) {
	bookings := []models.Booking{}
	where, args := bookingFilterClause(filter, "")

	query := `SELECT ` + bookingColumns + ` FROM bookings` + where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	if err := r.db.Select(&bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// ListDetails retrieves bookings joined with room and customer names
func (r *BookingRepository) ListDetails(filter models.BookingFilter) ([]models.BookingDetails, error) {
	details := []models.BookingDetails{}
	where, args := bookingFilterClause(filter, "b.")

	query := `
		SELECT b.id, b.room_id, b.customer_id, b.check_in, b.check_out, b.nights,
		       b.total_price_cents, b.status, b.refundable, b.payment_intent_id,
		       b.created_at, b.updated_at,
		       r.name AS room_name,
		       c.first_name || ' ' || c.last_name AS customer_name,
		       c.email AS customer_email
		FROM bookings b
		JOIN rooms r ON r.id = b.room_id
		JOIN customers c ON c.id = b.customer_id` + where + `
		ORDER BY b.check_in, b.id
	`

	if err := r.db.Select(&details, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list booking details: %w", err)
	}
	return details, nil
}

// UpdateStatus moves a booking from one status to another. The update only
// applies while the booking is still in from; otherwise ErrStatusChanged.
func (r *BookingRepository) UpdateStatus(id int64, from, to models.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.db.Exec(query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStatusChanged
		}
		return err
	}
	return nil
}

// Delete removes a booking. Bookings with payments cannot be deleted (ErrReferenced).
func (r *BookingRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", translateError(err))
	}
	return expectOneRow(result)
}
