package services

import (
	"context"
	"fmt"

	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/pkg/mail"
	"github.com/lagoonresort/reservation-backend/pkg/payfast"
	"github.com/lagoonresort/reservation-backend/pkg/sms"
	"github.com/sirupsen/logrus"
)

// NotificationService tells guests about their bookings and accounts.
// Delivery failures are logged and never fail the calling operation.
type NotificationService struct {
	mailer    mail.Mailer
	sms       sms.SMSGateway
	publicURL string
	logger    *logrus.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(mailer mail.Mailer, smsGateway sms.SMSGateway, publicURL string, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		mailer:    mailer,
		sms:       smsGateway,
		publicURL: publicURL,
		logger:    logger,
	}
}

func (s *NotificationService) sendEmail(ctx context.Context, to, subject, body string) {
	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		s.logger.WithError(err).WithField("to", to).Warn("Failed to send email")
	}
}

func (s *NotificationService) sendSMS(ctx context.Context, phone, message string) {
	if phone == "" {
		return
	}
	if _, err := s.sms.Send(ctx, phone, message); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"phone":   phone,
			"gateway": s.sms.GetName(),
		}).Warn("Failed to send SMS")
	}
}

// BookingConfirmed notifies the guest that payment was received
func (s *NotificationService) BookingConfirmed(ctx context.Context, booking *models.Booking, customer *models.Customer, roomName string) {
	body := fmt.Sprintf(
		"Dear %s,\n\nYour booking #%d for %s from %s to %s is confirmed.\nTotal paid: %s\n\nWe look forward to welcoming you.",
		customer.FullName(),
		booking.ID,
		roomName,
		booking.CheckIn.Format(models.DateLayout),
		booking.CheckOut.Format(models.DateLayout),
		payfast.FormatAmount(booking.TotalPriceCents),
	)
	s.sendEmail(ctx, customer.Email, fmt.Sprintf("Booking #%d confirmed", booking.ID), body)
	s.sendSMS(ctx, customer.Phone, fmt.Sprintf("Booking #%d confirmed: %s, check-in %s.",
		booking.ID, roomName, booking.CheckIn.Format(models.DateLayout)))
}

// BookingCancelled notifies the guest that the booking was cancelled
func (s *NotificationService) BookingCancelled(ctx context.Context, booking *models.Booking, customer *models.Customer) {
	body := fmt.Sprintf(
		"Dear %s,\n\nYour booking #%d from %s to %s has been cancelled.",
		customer.FullName(),
		booking.ID,
		booking.CheckIn.Format(models.DateLayout),
		booking.CheckOut.Format(models.DateLayout),
	)
	s.sendEmail(ctx, customer.Email, fmt.Sprintf("Booking #%d cancelled", booking.ID), body)
}

// BookingRefunded notifies the guest that the booking was refunded
func (s *NotificationService) BookingRefunded(ctx context.Context, booking *models.Booking, customer *models.Customer) {
	body := fmt.Sprintf(
		"Dear %s,\n\nYour booking #%d has been refunded (%s).",
		customer.FullName(),
		booking.ID,
		payfast.FormatAmount(booking.TotalPriceCents),
	)
	s.sendEmail(ctx, customer.Email, fmt.Sprintf("Booking #%d refunded", booking.ID), body)
}

// PasswordReset emails a one-time reset link
func (s *NotificationService) PasswordReset(ctx context.Context, email, token string) {
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\nReset it here: %s/reset-password?token=%s\n\nIf you did not request this, ignore this email.",
		s.publicURL, token,
	)
	s.sendEmail(ctx, email, "Reset your password", body)
}
