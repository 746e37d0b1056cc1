package models

import (
	"time"
)

// PaymentStatus represents the outcome of a payment attempt
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
)

// PaymentMethod identifies the gateway that produced a payment
type PaymentMethod string

const (
	PaymentMethodPayFast PaymentMethod = "payfast"
	PaymentMethodStripe  PaymentMethod = "stripe"
)

// Payment is a recorded attempt to collect (or return) funds for a booking.
// AmountCents is always positive; Status says which direction the money moved.
type Payment struct {
	ID                    int64         `json:"id" db:"id"`
	BookingID             int64         `json:"booking_id" db:"booking_id"`
	AmountCents           int64         `json:"amount_cents" db:"amount_cents"`
	Status                PaymentStatus `json:"status" db:"status"`
	Method                PaymentMethod `json:"method" db:"method"`
	ExternalTransactionID string        `json:"external_transaction_id" db:"external_transaction_id"`
	CreatedAt             time.Time     `json:"created_at" db:"created_at"`
}

// StripeChargeRequest is the body of POST /api/payment/stripe/:bookingId
type StripeChargeRequest struct {
	PaymentToken string `json:"payment_token"`
}

// StripeChargeResponse is returned after a successful card charge
type StripeChargeResponse struct {
	Message   string `json:"message"`
	PaymentID int64  `json:"payment_id"`
}

// PayFastRedirectResponse carries the hosted payment page URL
type PayFastRedirectResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// NotificationOutcome summarises how a gateway notification was applied
type NotificationOutcome struct {
	BookingID int64         `json:"booking_id"`
	PaymentID int64         `json:"payment_id,omitempty"`
	Status    BookingStatus `json:"booking_status"`
	Duplicate bool          `json:"duplicate"`
}
