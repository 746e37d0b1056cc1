package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/pkg/sms"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingMailer struct{}

func (failingMailer) Send(context.Context, string, string, string) error {
	return errors.New("relay down")
}

func notifiedBooking() (*models.Booking, *models.Customer) {
	booking := &models.Booking{
		ID:              12,
		CheckIn:         time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		CheckOut:        time.Date(2025, 12, 23, 0, 0, 0, 0, time.UTC),
		TotalPriceCents: 345050,
	}
	customer := &models.Customer{FirstName: "Ama", LastName: "Mensah", Email: "ama@example.com"}
	return booking, customer
}

func TestNotificationService_BookingConfirmed(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	mailer := &recordingMailer{}
	notifier := NewNotificationService(mailer, sms.NewLogGateway(logger), "http://localhost:4200", logger)
	booking, customer := notifiedBooking()

	notifier.BookingConfirmed(context.Background(), booking, customer, "Ocean Suite")

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ama@example.com", mailer.sent[0].to)
	assert.Equal(t, "Booking #12 confirmed", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "Dear Ama Mensah")
	assert.Contains(t, mailer.sent[0].body, "from 2025-12-20 to 2025-12-23")
	assert.Contains(t, mailer.sent[0].body, "Total paid: 3450.50")
}

func TestNotificationService_BookingRefunded(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	mailer := &recordingMailer{}
	notifier := NewNotificationService(mailer, sms.NewLogGateway(logger), "http://localhost:4200", logger)
	booking, customer := notifiedBooking()
	booking.TotalPriceCents = 905

	notifier.BookingRefunded(context.Background(), booking, customer)

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].body, "has been refunded (9.05)")
}

func TestNotificationService_PasswordReset(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	mailer := &recordingMailer{}
	notifier := NewNotificationService(mailer, sms.NewLogGateway(logger), "https://lagoon.example", logger)

	notifier.PasswordReset(context.Background(), "ama@example.com", "tok123")

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].body, "https://lagoon.example/reset-password?token=tok123")
}

func TestNotificationService_DeliveryFailureIsLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	notifier := NewNotificationService(failingMailer{}, sms.NewLogGateway(logger), "http://localhost:4200", logger)
	booking, customer := notifiedBooking()

	notifier.BookingCancelled(context.Background(), booking, customer)

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "Failed to send email" {
			warned = true
		}
	}
	assert.True(t, warned)
}
