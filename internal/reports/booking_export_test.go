package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteBookings(t *testing.T) {
	checkIn := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	bookings := []models.BookingDetails{
		{
			Booking: models.Booking{
				ID:              42,
				RoomID:          7,
				CheckIn:         checkIn,
				CheckOut:        checkIn.AddDate(0, 0, 3),
				Nights:          3,
				TotalPriceCents: 432000,
				Status:          models.BookingStatusConfirmed,
				Refundable:      true,
				CreatedAt:       checkIn.AddDate(0, -1, 0),
			},
			RoomName:      "Ocean Suite",
			CustomerName:  "Thandi Nkosi",
			CustomerEmail: "thandi@example.com",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(bookingSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Booking ID", rows[0][0])
	assert.Equal(t, "42", rows[1][0])
	assert.Equal(t, "Ocean Suite", rows[1][1])
	assert.Equal(t, "2025-12-10", rows[1][4])
	assert.Equal(t, "Confirmed", rows[1][8])

	total, err := f.GetCellValue(bookingSheet, "H2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "4320", total)
}

func TestWriteBookingsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, nil))
	assert.NotZero(t, buf.Len())
}
