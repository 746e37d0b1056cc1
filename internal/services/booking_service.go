package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/lagoonresort/reservation-backend/internal/metrics"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/internal/queue"
	"github.com/lagoonresort/reservation-backend/internal/reports"
	"github.com/sirupsen/logrus"
)

// EventPublisher delivers booking events to the broker
type EventPublisher interface {
	Publish(ctx context.Context, queue string, event interface{}) error
}

// BookingService runs the booking lifecycle
type BookingService struct {
	bookingRepo  *database.BookingRepository
	roomRepo     *database.RoomRepository
	customerRepo *database.CustomerRepository
	paymentRepo  *database.PaymentRepository
	customers    *CustomerService
	rooms        *RoomService
	cards        CardGateway
	notifier     *NotificationService
	publisher    EventPublisher
	metrics      *metrics.Metrics
	logger       *logrus.Logger
}

// BookingServiceDeps groups the collaborators of BookingService
type BookingServiceDeps struct {
	BookingRepo  *database.BookingRepository
	RoomRepo     *database.RoomRepository
	CustomerRepo *database.CustomerRepository
	PaymentRepo  *database.PaymentRepository
	Customers    *CustomerService
	Rooms        *RoomService
	Cards        CardGateway
	Notifier     *NotificationService
	Publisher    EventPublisher
	Metrics      *metrics.Metrics
	Logger       *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(deps BookingServiceDeps) *BookingService {
	return &BookingService{
		bookingRepo:  deps.BookingRepo,
		roomRepo:     deps.RoomRepo,
		customerRepo: deps.CustomerRepo,
		paymentRepo:  deps.PaymentRepo,
		customers:    deps.Customers,
		rooms:        deps.Rooms,
		cards:        deps.Cards,
		notifier:     deps.Notifier,
		publisher:    deps.Publisher,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
	}
}

// CreateBooking books a room for a stay. The customer is matched by email and
// created when unknown. The booking starts Pending.
func (s *BookingService) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	stay, err := models.NewStayRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	room, err := s.roomRepo.GetByID(req.RoomID)
	if err != nil {
		return nil, InternalError("failed to load room", err)
	}
	if room == nil {
		return nil, NotFoundError("room", req.RoomID)
	}
	if !room.IsAvailable {
		return nil, ValidationError("room %d is not available for booking", room.ID)
	}

	customer, err := s.customers.ResolveForBooking(&req.Customer)
	if err != nil {
		return nil, err
	}
	newCustomer := customer.ID == 0

	price := CalculateStayPrice(room.BasePriceCents, stay)
	booking := &models.Booking{
		RoomID:          room.ID,
		CustomerID:      customer.ID,
		CheckIn:         stay.CheckIn,
		CheckOut:        stay.CheckOut,
		Nights:          price.Nights,
		TotalPriceCents: price.TotalCents,
		Status:          models.BookingStatusPending,
		Refundable:      req.Refundable,
	}

	if err := s.bookingRepo.CreateWithAvailabilityCheck(booking, customer); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, NotFoundError("room", req.RoomID)
		case newCustomer && errors.Is(err, database.ErrDuplicate):
			return nil, ConflictError("customer with this email or phone already exists")
		}
		return nil, fromRepository("booking", "create", err)
	}
	if newCustomer {
		s.logger.WithField("customer_id", customer.ID).Info("Customer created for booking")
	}

	s.metrics.IncBookingCreated()
	s.publish(ctx, queue.QueueBookingCreated, booking)

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"room_id":           booking.RoomID,
		"customer_id":       booking.CustomerID,
		"check_in":          stay.CheckIn.Format(models.DateLayout),
		"check_out":         stay.CheckOut.Format(models.DateLayout),
		"total_price_cents": booking.TotalPriceCents,
	}).Info("Booking created")

	return booking, nil
}

// GetBooking returns one booking
func (s *BookingService) GetBooking(id int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(id)
	if err != nil {
		return nil, InternalError("failed to load booking", err)
	}
	if booking == nil {
		return nil, NotFoundError("booking", id)
	}
	return booking, nil
}

// ListBookings returns bookings matching the filter, newest first
func (s *BookingService) ListBookings(filter models.BookingFilter) ([]models.Booking, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, ValidationError("invalid status filter: %s", filter.Status)
	}
	filter.Limit = clampLimit(filter.Limit)
	filter.Offset = max(filter.Offset, 0)

	bookings, err := s.bookingRepo.List(filter)
	if err != nil {
		return nil, InternalError("failed to list bookings", err)
	}
	return bookings, nil
}

// UpdateBookingDates moves a Pending booking to new dates and re-prices it
func (s *BookingService) UpdateBookingDates(ctx context.Context, id int64, req *models.UpdateBookingRequest) (*models.Booking, error) {
	stay, err := models.NewStayRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	booking, err := s.GetBooking(id)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ValidationError("only pending bookings can be changed (status %s)", booking.Status)
	}

	room, err := s.roomRepo.GetByID(booking.RoomID)
	if err != nil {
		return nil, InternalError("failed to load room", err)
	}
	if room == nil {
		return nil, NotFoundError("room", booking.RoomID)
	}

	price := CalculateStayPrice(room.BasePriceCents, stay)
	booking.CheckIn = stay.CheckIn
	booking.CheckOut = stay.CheckOut
	booking.Nights = price.Nights
	booking.TotalPriceCents = price.TotalCents

	if err := s.bookingRepo.UpdateDatesWithAvailabilityCheck(booking); err != nil {
		switch {
		case errors.Is(err, database.ErrStatusChanged):
			return nil, ConflictError("booking %d is no longer pending", id)
		case errors.Is(err, sql.ErrNoRows):
			return nil, NotFoundError("room", booking.RoomID)
		}
		return nil, fromRepository("booking", "update", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"check_in":          stay.CheckIn.Format(models.DateLayout),
		"check_out":         stay.CheckOut.Format(models.DateLayout),
		"total_price_cents": booking.TotalPriceCents,
	}).Info("Booking dates updated")

	return booking, nil
}

// CancelBooking moves a Pending booking to Cancelled
func (s *BookingService) CancelBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.transition(ctx, id, models.BookingStatusCancelled)
}

// CompleteBooking moves a Confirmed booking to Completed after the stay
func (s *BookingService) CompleteBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.transition(ctx, id, models.BookingStatusCompleted)
}

func (s *BookingService) transition(ctx context.Context, id int64, next models.BookingStatus) (*models.Booking, error) {
	booking, err := s.GetBooking(id)
	if err != nil {
		return nil, err
	}

	from := booking.Status
	if err := booking.TransitionTo(next); err != nil {
		return nil, ValidationError("cannot move booking from %s to %s", from, next)
	}

	if err := s.bookingRepo.UpdateStatus(id, from, next); err != nil {
		if errors.Is(err, database.ErrStatusChanged) {
			return nil, ConflictError("booking %d was changed concurrently", id)
		}
		return nil, InternalError("failed to update booking status", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": id,
		"from":       from,
		"to":         next,
	}).Info("Booking status changed")

	s.StatusChanged(ctx, booking)
	return booking, nil
}

// RefundBooking refunds a Confirmed, refundable booking. Card payments are
// refunded through the gateway; PayFast refunds are settled manually and only
// recorded here.
func (s *BookingService) RefundBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.GetBooking(id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(models.BookingStatusRefunded) {
		return nil, ValidationError("cannot move booking from %s to %s", booking.Status, models.BookingStatusRefunded)
	}
	if !booking.Refundable {
		return nil, ValidationError("booking %d is not refundable", id)
	}

	payment := &models.Payment{
		BookingID:   booking.ID,
		AmountCents: booking.TotalPriceCents,
		Status:      models.PaymentStatusRefunded,
	}

	if booking.PaymentIntentID.Valid {
		refundID, err := s.cards.Refund(ctx, booking.PaymentIntentID.String)
		if err != nil {
			if errors.Is(err, ErrCardPaymentsDisabled) {
				return nil, ValidationError("%s", err.Error())
			}
			return nil, InternalError("failed to refund card payment", err)
		}
		payment.Method = models.PaymentMethodStripe
		payment.ExternalTransactionID = refundID
	} else {
		payment.Method = models.PaymentMethodPayFast
		payment.ExternalTransactionID = fmt.Sprintf("manual-refund-%d", booking.ID)
	}

	// The gateway refund above is not rolled back when this fails
	outcome, err := s.paymentRepo.ApplyOutcome(payment, models.BookingStatusRefunded, "")
	if err != nil {
		if payment.Method == models.PaymentMethodStripe {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"booking_id":        id,
				"payment_intent_id": booking.PaymentIntentID.String,
				"refund_id":         payment.ExternalTransactionID,
				"amount_cents":      payment.AmountCents,
			}).Error("Card refunded but refund could not be recorded")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundError("booking", id)
		}
		return nil, InternalError("failed to record refund", err)
	}
	if outcome.Duplicate {
		return outcome.Booking, nil
	}

	s.metrics.IncPayment(string(payment.Method), string(payment.Status))
	if !outcome.Transitioned {
		s.logger.WithFields(logrus.Fields{
			"booking_id": id,
			"status":     outcome.PriorStatus,
		}).Warn("Refund recorded for a booking that changed status concurrently")
		return nil, ConflictError("booking %d was changed concurrently", id)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   id,
		"payment_id":   payment.ID,
		"method":       payment.Method,
		"amount_cents": payment.AmountCents,
	}).Info("Booking refunded")

	s.StatusChanged(ctx, outcome.Booking)
	return outcome.Booking, nil
}

// DeleteBooking removes a booking without payments
func (s *BookingService) DeleteBooking(ctx context.Context, id int64) error {
	if err := s.bookingRepo.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NotFoundError("booking", id)
		}
		if errors.Is(err, database.ErrReferenced) {
			return ConflictError("booking %d has payments and cannot be deleted", id)
		}
		return InternalError("failed to delete booking", err)
	}

	s.rooms.InvalidateListing(ctx)
	s.logger.WithField("booking_id", id).Info("Booking deleted")
	return nil
}

// ExportBookings writes the filtered bookings as an .xlsx workbook
func (s *BookingService) ExportBookings(w io.Writer, filter models.BookingFilter) error {
	if filter.Status != "" && !filter.Status.IsValid() {
		return ValidationError("invalid status filter: %s", filter.Status)
	}

	details, err := s.bookingRepo.ListDetails(filter)
	if err != nil {
		return InternalError("failed to load bookings for export", err)
	}
	if err := reports.WriteBookings(w, details); err != nil {
		return InternalError("failed to write booking export", err)
	}

	s.logger.WithField("rows", len(details)).Info("Bookings exported")
	return nil
}

// StatusChanged runs the side effects of a booking entering its current
// status: metrics, events, listing invalidation and guest notification.
// Failures are logged and never returned.
func (s *BookingService) StatusChanged(ctx context.Context, booking *models.Booking) {
	s.metrics.IncBookingTransition(string(booking.Status))

	switch booking.Status {
	case models.BookingStatusConfirmed:
		s.publish(ctx, queue.QueueBookingConfirmed, booking)
	case models.BookingStatusCancelled:
		s.publish(ctx, queue.QueueBookingCancelled, booking)
	}

	if booking.Status != models.BookingStatusCompleted {
		s.rooms.InvalidateListing(ctx)
	}

	s.notify(ctx, booking)
}

func (s *BookingService) notify(ctx context.Context, booking *models.Booking) {
	switch booking.Status {
	case models.BookingStatusConfirmed, models.BookingStatusCancelled, models.BookingStatusRefunded:
	default:
		return
	}

	customer, err := s.customerRepo.GetByID(booking.CustomerID)
	if err != nil || customer == nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Skipping notification: customer not loaded")
		return
	}

	switch booking.Status {
	case models.BookingStatusConfirmed:
		roomName := fmt.Sprintf("room %d", booking.RoomID)
		if room, err := s.roomRepo.GetByID(booking.RoomID); err == nil && room != nil {
			roomName = room.Name
		}
		s.notifier.BookingConfirmed(ctx, booking, customer, roomName)
	case models.BookingStatusCancelled:
		s.notifier.BookingCancelled(ctx, booking, customer)
	case models.BookingStatusRefunded:
		s.notifier.BookingRefunded(ctx, booking, customer)
	}
}

func (s *BookingService) publish(ctx context.Context, queueName string, booking *models.Booking) {
	event := queue.BookingEvent{
		BookingID:       booking.ID,
		RoomID:          booking.RoomID,
		CustomerID:      booking.CustomerID,
		CheckIn:         booking.CheckIn.Format(models.DateLayout),
		CheckOut:        booking.CheckOut.Format(models.DateLayout),
		Status:          string(booking.Status),
		TotalPriceCents: booking.TotalPriceCents,
		OccurredAt:      time.Now().UTC(),
	}

	if err := s.publisher.Publish(ctx, queueName, event); err != nil {
		s.metrics.IncPublishFailure(queueName)
		s.logger.WithError(err).WithFields(logrus.Fields{
			"queue":      queueName,
			"booking_id": booking.ID,
		}).Error("Failed to publish booking event")
	}
}
