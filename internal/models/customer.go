package models

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Customer represents a guest who makes bookings
type Customer struct {
	ID        int64         `json:"id" db:"id"`
	FirstName string        `json:"first_name" db:"first_name"`
	LastName  string        `json:"last_name" db:"last_name"`
	Email     string        `json:"email" db:"email"`
	Phone     string        `json:"phone" db:"phone"`
	UserID    uuid.NullUUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// FullName returns "First Last"
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CustomerRequest carries customer details for create/update and for new bookings
type CustomerRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
}

// Validate validates the CustomerRequest. Phone format is checked by the service.
func (req *CustomerRequest) Validate() error {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.FirstName == "" || req.LastName == "" {
		return errors.New("first_name and last_name are required")
	}
	if len(req.FirstName) > 50 || len(req.LastName) > 50 {
		return errors.New("names must be at most 50 characters")
	}
	if req.Email == "" {
		return errors.New("email is required")
	}
	if len(req.Email) > 254 {
		return errors.New("email must be at most 254 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return errors.New("email is not a valid address")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return errors.New("phone is required")
	}
	return nil
}
