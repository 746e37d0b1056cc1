package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingRowColumns = []string{
	"id", "room_id", "customer_id", "check_in", "check_out", "nights", "total_price_cents",
	"status", "refundable", "payment_intent_id", "created_at", "updated_at",
}

func bookingRow(id int64, status models.BookingStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(bookingRowColumns).AddRow(
		id, 7, 3, now, now.AddDate(0, 0, 3), 3, 432000, string(status), true, nil, now, now,
	)
}

func payfastPayment(bookingID int64) *models.Payment {
	return &models.Payment{
		BookingID:             bookingID,
		AmountCents:           432000,
		Status:                models.PaymentStatusCompleted,
		Method:                models.PaymentMethodPayFast,
		ExternalTransactionID: "pf-1001",
	}
}

func TestApplyOutcome(t *testing.T) {
	t.Run("Confirms Pending Booking", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPaymentRepository(db)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(42)).
			WillReturnRows(bookingRow(42, models.BookingStatusPending))
		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE method = \$1 AND external_transaction_id = \$2`).
			WithArgs("payfast", "pf-1001").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`INSERT INTO payments`).
			WithArgs(int64(42), int64(432000), "Completed", "payfast", "pf-1001").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, now))
		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs("Confirmed", nil, int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
		mock.ExpectCommit()

		outcome, err := repo.ApplyOutcome(payfastPayment(42), models.BookingStatusConfirmed, "")
		require.NoError(t, err)
		assert.True(t, outcome.Transitioned)
		assert.False(t, outcome.Duplicate)
		assert.Equal(t, int64(9), outcome.Payment.ID)
		assert.Equal(t, models.BookingStatusConfirmed, outcome.Booking.Status)
		assert.Equal(t, models.BookingStatusPending, outcome.PriorStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Notification", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPaymentRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(42)).
			WillReturnRows(bookingRow(42, models.BookingStatusConfirmed))
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs("payfast", "pf-1001").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "booking_id", "amount_cents", "status", "method", "external_transaction_id", "created_at",
			}).AddRow(9, 42, 432000, "Completed", "payfast", "pf-1001", time.Now()))
		mock.ExpectRollback()

		outcome, err := repo.ApplyOutcome(payfastPayment(42), models.BookingStatusConfirmed, "")
		require.NoError(t, err)
		assert.True(t, outcome.Duplicate)
		assert.False(t, outcome.Transitioned)
		assert.Equal(t, int64(9), outcome.Payment.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Booking No Longer Pending", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPaymentRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(bookingRow(42, models.BookingStatusCancelled))
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`INSERT INTO payments`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(10, time.Now()))
		mock.ExpectCommit()

		outcome, err := repo.ApplyOutcome(payfastPayment(42), models.BookingStatusConfirmed, "")
		require.NoError(t, err)
		assert.False(t, outcome.Transitioned)
		assert.Equal(t, models.BookingStatusCancelled, outcome.Booking.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Booking Missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPaymentRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns))
		mock.ExpectRollback()

		outcome, err := repo.ApplyOutcome(payfastPayment(404), models.BookingStatusConfirmed, "")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, outcome)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Stores Payment Intent", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPaymentRepository(db)
		now := time.Now()
		payment := &models.Payment{
			BookingID:             42,
			AmountCents:           432000,
			Status:                models.PaymentStatusCompleted,
			Method:                models.PaymentMethodStripe,
			ExternalTransactionID: "pi_123",
		}

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(bookingRow(42, models.BookingStatusPending))
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs("stripe", "pi_123").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`INSERT INTO payments`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, now))
		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs("Confirmed", "pi_123", int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
		mock.ExpectCommit()

		outcome, err := repo.ApplyOutcome(payment, models.BookingStatusConfirmed, "pi_123")
		require.NoError(t, err)
		assert.Equal(t, "pi_123", outcome.Booking.PaymentIntentID.String)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
