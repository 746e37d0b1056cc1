package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lagoonresort/reservation-backend/internal/models"
)

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, amount_cents, status, method, external_transaction_id, created_at`

// PaymentOutcome reports what ApplyOutcome changed
type PaymentOutcome struct {
	Booking      *models.Booking
	Payment      *models.Payment
	Duplicate    bool // the external transaction was already recorded; nothing written
	Transitioned bool // the booking moved to the requested status
	PriorStatus  models.BookingStatus
}

// ApplyOutcome records a gateway payment and moves its booking to next in one
// transaction. The booking row is locked for the duration.
//
// Returns sql.ErrNoRows when the booking does not exist. When the external
// transaction id was already recorded for the method, nothing is written and
// Duplicate is set. When the booking cannot move to next (it was already
// confirmed, cancelled, ...), the payment is still recorded and Transitioned
// is false. paymentIntentID, when non-empty, is stored on the booking.
func (r *PaymentRepository) ApplyOutcome(
	payment *models.Payment,
	next models.BookingStatus,
	paymentIntentID string,
) (*PaymentOutcome, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var booking models.Booking
	err = tx.Get(&booking, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, payment.BookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}

	outcome := &PaymentOutcome{Booking: &booking, Payment: payment, PriorStatus: booking.Status}

	if payment.ExternalTransactionID != "" {
		var existing models.Payment
		err = tx.Get(&existing,
			`SELECT `+paymentColumns+` FROM payments WHERE method = $1 AND external_transaction_id = $2`,
			payment.Method, payment.ExternalTransactionID,
		)
		if err == nil {
			outcome.Payment = &existing
			outcome.Duplicate = true
			return outcome, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check existing payment: %w", err)
		}
	}

	insertQuery := `
		INSERT INTO payments (booking_id, amount_cents, status, method, external_transaction_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err = tx.QueryRowx(insertQuery,
		payment.BookingID,
		payment.AmountCents,
		payment.Status,
		payment.Method,
		payment.ExternalTransactionID,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", translateError(err))
	}

	if booking.Status.CanTransitionTo(next) {
		var intent interface{}
		if paymentIntentID != "" {
			intent = paymentIntentID
		}

		updateQuery := `
			UPDATE bookings
			SET status = $1, payment_intent_id = COALESCE($2, payment_intent_id), updated_at = NOW()
			WHERE id = $3
			RETURNING updated_at
		`
		if err := tx.QueryRowx(updateQuery, next, intent, booking.ID).Scan(&booking.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to update booking status: %w", err)
		}
		booking.Status = next
		if paymentIntentID != "" {
			booking.PaymentIntentID = sql.NullString{String: paymentIntentID, Valid: true}
		}
		outcome.Transitioned = true
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", translateError(err))
	}

	return outcome, nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(id int64) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Get(&payment, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

// ListByBooking retrieves the payments of one booking, oldest first
func (r *PaymentRepository) ListByBooking(bookingID int64) ([]models.Payment, error) {
	payments := []models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY created_at, id`

	if err := r.db.Select(&payments, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// List retrieves payments newest first
func (r *PaymentRepository) List(limit, offset int) ([]models.Payment, error) {
	payments := []models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	if err := r.db.Select(&payments, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// RecordFailed stores a failed attempt without touching the booking
func (r *PaymentRepository) RecordFailed(payment *models.Payment) error {
	payment.Status = models.PaymentStatusFailed
	query := `
		INSERT INTO payments (booking_id, amount_cents, status, method, external_transaction_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query,
		payment.BookingID,
		payment.AmountCents,
		payment.Status,
		payment.Method,
		payment.ExternalTransactionID,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record failed payment: %w", translateError(err))
	}
	return nil
}
