package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCompleted BookingStatus = "Completed"
	BookingStatusCancelled BookingStatus = "Cancelled"
	BookingStatusRefunded  BookingStatus = "Refunded"
)

// bookingTransitions lists the allowed next states for each state.
// Completed, Cancelled and Refunded are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusRefunded},
}

// CanTransitionTo reports whether the state machine allows s -> next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// IsValid reports whether s is a known status
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted,
		BookingStatusCancelled, BookingStatusRefunded:
		return true
	}
	return false
}

// ErrInvalidTransition is returned when a status change is not allowed
var ErrInvalidTransition = errors.New("invalid booking status transition")

// TransitionTo moves the booking to next or returns ErrInvalidTransition
func (b *Booking) TransitionTo(next BookingStatus) error {
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, next)
	}
	b.Status = next
	b.UpdatedAt = time.Now()
	return nil
}

// Booking represents a reservation of a room for a date range. Prices are in cents.
type Booking struct {
	ID              int64          `json:"id" db:"id"`
	RoomID          int64          `json:"room_id" db:"room_id"`
	CustomerID      int64          `json:"customer_id" db:"customer_id"`
	CheckIn         time.Time      `json:"check_in" db:"check_in"`
	CheckOut        time.Time      `json:"check_out" db:"check_out"`
	Nights          int            `json:"nights" db:"nights"`
	TotalPriceCents int64          `json:"total_price_cents" db:"total_price_cents"`
	Status          BookingStatus  `json:"status" db:"status"`
	Refundable      bool           `json:"refundable" db:"refundable"`
	PaymentIntentID sql.NullString `json:"-" db:"payment_intent_id"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// DateLayout is the wire format for check-in/check-out dates
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return t, nil
}

// StayRange is a validated check-in/check-out pair
type StayRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Nights returns the number of nights in the stay
func (r StayRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// MaxStayNights is the longest stay a single booking may cover
const MaxStayNights = 365

// NewStayRange parses and validates a stay. Check-in must be before check-out
// and the stay may not exceed MaxStayNights.
func NewStayRange(checkIn, checkOut string) (StayRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return StayRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return StayRange{}, err
	}
	if !in.Before(out) {
		return StayRange{}, errors.New("check_in must be before check_out")
	}
	if out.After(in.AddDate(0, 0, MaxStayNights)) {
		return StayRange{}, fmt.Errorf("stay must not exceed %d nights", MaxStayNights)
	}
	return StayRange{CheckIn: in, CheckOut: out}, nil
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	RoomID     int64           `json:"room_id" binding:"required"`
	CheckIn    string          `json:"check_in" binding:"required"`
	CheckOut   string          `json:"check_out" binding:"required"`
	Refundable bool            `json:"refundable"`
	Customer   CustomerRequest `json:"customer" binding:"required"`
}

// UpdateBookingRequest changes the dates of a pending booking
type UpdateBookingRequest struct {
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out" binding:"required"`
}

// BookingFilter narrows booking listings
type BookingFilter struct {
	Status     BookingStatus
	RoomID     int64
	CustomerID int64
	Limit      int
	Offset     int
}

// BookingDetails is a booking joined with its room and customer names, used for exports
type BookingDetails struct {
	Booking
	RoomName      string `db:"room_name"`
	CustomerName  string `db:"customer_name"`
	CustomerEmail string `db:"customer_email"`
}
