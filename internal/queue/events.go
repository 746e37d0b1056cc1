// Package queue publishes booking lifecycle events to RabbitMQ.
package queue

import (
	"time"
)

// Queue names. Routing key equals queue name on the default exchange.
const (
	QueueBookingCreated   = "booking.created"
	QueueBookingConfirmed = "booking.confirmed"
	QueueBookingCancelled = "booking.cancelled"
)

// BookingEvent is the JSON body of every booking event
type BookingEvent struct {
	BookingID       int64     `json:"booking_id"`
	RoomID          int64     `json:"room_id"`
	CustomerID      int64     `json:"customer_id"`
	CheckIn         string    `json:"check_in"`
	CheckOut        string    `json:"check_out"`
	Status          string    `json:"status"`
	TotalPriceCents int64     `json:"total_price_cents"`
	OccurredAt      time.Time `json:"occurred_at"`
}
