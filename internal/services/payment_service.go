package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lagoonresort/reservation-backend/internal/config"
	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/lagoonresort/reservation-backend/internal/metrics"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/pkg/payfast"
	"github.com/sirupsen/logrus"
)

// PaymentService reconciles gateway payments with bookings
type PaymentService struct {
	paymentRepo *database.PaymentRepository
	bookings    *BookingService
	customers   *CustomerService
	cards       CardGateway
	payfast     config.PayFastConfig
	merchant    payfast.Merchant
	currency    string
	metrics     *metrics.Metrics
	logger      *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo *database.PaymentRepository,
	bookings *BookingService,
	customers *CustomerService,
	cards CardGateway,
	payfastCfg config.PayFastConfig,
	stripeCfg config.StripeConfig,
	metrics *metrics.Metrics,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		bookings:    bookings,
		customers:   customers,
		cards:       cards,
		payfast:     payfastCfg,
		merchant: payfast.Merchant{
			MerchantID:  payfastCfg.MerchantID,
			MerchantKey: payfastCfg.MerchantKey,
			Passphrase:  payfastCfg.Passphrase,
			ProcessURL:  payfastCfg.ProcessURL(),
			ReturnURL:   payfastCfg.ReturnURL,
			CancelURL:   payfastCfg.CancelURL,
			NotifyURL:   payfastCfg.NotifyURL,
		},
		currency: stripeCfg.Currency,
		metrics:  metrics,
		logger:   logger,
	}
}

// requirePending loads a booking that can still be paid
func (s *PaymentService) requirePending(bookingID int64) (*models.Booking, error) {
	booking, err := s.bookings.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ValidationError("booking %d is %s; only pending bookings can be paid", bookingID, booking.Status)
	}
	return booking, nil
}

// CreatePayFastRedirect builds the signed hosted-payment URL for a Pending booking
func (s *PaymentService) CreatePayFastRedirect(bookingID int64) (*models.PayFastRedirectResponse, error) {
	if !s.payfast.Enabled {
		return nil, ValidationError("PayFast payments are not enabled")
	}

	booking, err := s.requirePending(bookingID)
	if err != nil {
		return nil, err
	}

	req := payfast.RedirectRequest{
		PaymentID:   strconv.FormatInt(booking.ID, 10),
		AmountCents: booking.TotalPriceCents,
		ItemName:    fmt.Sprintf("Booking #%d", booking.ID),
	}
	if customer, err := s.customers.GetCustomer(booking.CustomerID); err == nil {
		req.Email = customer.Email
		req.FirstName = customer.FirstName
		req.LastName = customer.LastName
	}

	redirectURL, err := s.merchant.RedirectURL(req)
	if err != nil {
		return nil, InternalError("failed to build PayFast redirect", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"amount_cents": booking.TotalPriceCents,
	}).Info("PayFast redirect created")

	return &models.PayFastRedirectResponse{RedirectURL: redirectURL}, nil
}

// HandlePaymentNotification applies a PayFast notification. The signature is
// checked before anything is read or written. A COMPLETE payment confirms the
// booking, anything else cancels it. Repeated notifications are acknowledged
// without writes.
func (s *PaymentService) HandlePaymentNotification(ctx context.Context, fields map[string]string) (*models.NotificationOutcome, error) {
	if err := payfast.Verify(fields, s.payfast.Passphrase); err != nil {
		s.logger.WithFields(logrus.Fields{
			"m_payment_id":  fields["m_payment_id"],
			"pf_payment_id": fields["pf_payment_id"],
		}).Warn("Rejected PayFast notification: " + err.Error())
		return nil, ValidationError("payment notification rejected: %s", err.Error())
	}

	notification, err := payfast.ParseNotification(fields)
	if err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	payment := &models.Payment{
		BookingID:             notification.BookingID,
		AmountCents:           notification.AmountCents,
		Status:                models.PaymentStatusFailed,
		Method:                models.PaymentMethodPayFast,
		ExternalTransactionID: notification.PaymentID,
	}
	next := models.BookingStatusCancelled
	if notification.Succeeded() {
		payment.Status = models.PaymentStatusCompleted
		next = models.BookingStatusConfirmed
	}

	outcome, err := s.paymentRepo.ApplyOutcome(payment, next, "")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundError("booking", notification.BookingID)
		}
		return nil, fromRepository("payment", "record", err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"booking_id":     outcome.Booking.ID,
		"pf_payment_id":  notification.PaymentID,
		"payment_status": notification.PaymentStatus,
		"amount_cents":   notification.AmountCents,
	})

	result := &models.NotificationOutcome{
		BookingID: outcome.Booking.ID,
		PaymentID: outcome.Payment.ID,
		Status:    outcome.Booking.Status,
		Duplicate: outcome.Duplicate,
	}

	if outcome.Duplicate {
		log.Info("Duplicate PayFast notification acknowledged")
		return result, nil
	}

	s.metrics.IncPayment(string(payment.Method), string(payment.Status))

	if notification.Succeeded() && notification.AmountCents != outcome.Booking.TotalPriceCents {
		log.WithField("expected_cents", outcome.Booking.TotalPriceCents).
			Warn("PayFast amount differs from booking total")
	}

	if !outcome.Transitioned {
		log.WithField("booking_status", outcome.PriorStatus).
			Warn("Reconciliation mismatch: payment recorded for a booking that is no longer pending")
		return result, nil
	}

	log.WithField("booking_status", outcome.Booking.Status).Info("PayFast notification applied")
	s.bookings.StatusChanged(ctx, outcome.Booking)
	return result, nil
}

// ChargeWithStripe charges the booking total to a card token and confirms the booking
func (s *PaymentService) ChargeWithStripe(ctx context.Context, bookingID int64, paymentToken string) (*models.StripeChargeResponse, error) {
	booking, err := s.requirePending(bookingID)
	if err != nil {
		return nil, err
	}
	if paymentToken == "" {
		return nil, ValidationError("payment_token is required")
	}

	log := s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"amount_cents": booking.TotalPriceCents,
	})

	charge, err := s.cards.Charge(ctx, booking.TotalPriceCents, s.currency, paymentToken, booking.ID)
	if err != nil {
		if errors.Is(err, ErrCardPaymentsDisabled) {
			return nil, ValidationError("%s", err.Error())
		}
		if !errors.Is(err, ErrCardDeclined) {
			return nil, InternalError("card charge failed", err)
		}

		if charge == nil {
			charge = &ChargeResult{DeclineMessage: "card declined"}
		}
		failed := &models.Payment{
			BookingID:             booking.ID,
			AmountCents:           booking.TotalPriceCents,
			Method:                models.PaymentMethodStripe,
			ExternalTransactionID: charge.PaymentIntentID,
		}
		if recordErr := s.paymentRepo.RecordFailed(failed); recordErr != nil {
			log.WithError(recordErr).Error("Failed to record declined card payment")
		}
		s.metrics.IncPayment(string(models.PaymentMethodStripe), string(models.PaymentStatusFailed))

		log.WithField("reason", charge.DeclineMessage).Info("Card payment declined")
		return nil, ValidationError("payment declined: %s", charge.DeclineMessage)
	}

	payment := &models.Payment{
		BookingID:             booking.ID,
		AmountCents:           booking.TotalPriceCents,
		Status:                models.PaymentStatusCompleted,
		Method:                models.PaymentMethodStripe,
		ExternalTransactionID: charge.PaymentIntentID,
	}

	outcome, err := s.paymentRepo.ApplyOutcome(payment, models.BookingStatusConfirmed, charge.PaymentIntentID)
	if err != nil {
		log.WithError(err).WithField("payment_intent_id", charge.PaymentIntentID).
			Error("Card charged but payment could not be recorded")
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundError("booking", booking.ID)
		}
		return nil, InternalError("failed to record card payment", err)
	}

	s.metrics.IncPayment(string(payment.Method), string(payment.Status))

	if !outcome.Transitioned {
		log.WithField("booking_status", outcome.PriorStatus).
			Warn("Reconciliation mismatch: card charged for a booking that is no longer pending")
		return nil, ConflictError("payment recorded but booking %d is no longer pending", booking.ID)
	}

	log.WithFields(logrus.Fields{
		"payment_id":        outcome.Payment.ID,
		"payment_intent_id": charge.PaymentIntentID,
	}).Info("Card payment completed")

	s.bookings.StatusChanged(ctx, outcome.Booking)

	return &models.StripeChargeResponse{
		Message:   "Payment successful",
		PaymentID: outcome.Payment.ID,
	}, nil
}

// ListPayments returns the payments of a booking, or all payments when bookingID is 0
func (s *PaymentService) ListPayments(bookingID int64, limit, offset int) ([]models.Payment, error) {
	if bookingID > 0 {
		if _, err := s.bookings.GetBooking(bookingID); err != nil {
			return nil, err
		}
		payments, err := s.paymentRepo.ListByBooking(bookingID)
		if err != nil {
			return nil, InternalError("failed to list payments", err)
		}
		return payments, nil
	}

	payments, err := s.paymentRepo.List(clampLimit(limit), max(offset, 0))
	if err != nil {
		return nil, InternalError("failed to list payments", err)
	}
	return payments, nil
}
