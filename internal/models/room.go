package models

import (
	"errors"
	"strings"
	"time"
)

// RoomCategory represents the class of a room
type RoomCategory string

const (
	RoomCategoryStandard RoomCategory = "standard"
	RoomCategoryDeluxe   RoomCategory = "deluxe"
	RoomCategorySuite    RoomCategory = "suite"
	RoomCategoryVilla    RoomCategory = "villa"
)

func (c RoomCategory) valid() bool {
	switch c {
	case RoomCategoryStandard, RoomCategoryDeluxe, RoomCategorySuite, RoomCategoryVilla:
		return true
	}
	return false
}

// Room represents a bookable room. Prices are in cents.
type Room struct {
	ID                int64        `json:"id" db:"id"`
	Name              string       `json:"name" db:"name"`
	Category          RoomCategory `json:"category" db:"category"`
	Capacity          int          `json:"capacity" db:"capacity"`
	BasePriceCents    int64        `json:"base_price_cents" db:"base_price_cents"`
	DynamicPriceCents int64        `json:"dynamic_price_cents" db:"dynamic_price_cents"`
	IsAvailable       bool         `json:"is_available" db:"is_available"` // in service; occupancy is derived from bookings
	Description       string       `json:"description" db:"description"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" db:"updated_at"`

	Amenities []Amenity `json:"amenities,omitempty" db:"-"`
	Images    []Image   `json:"images,omitempty" db:"-"`
}

// CreateRoomRequest represents the request to create a room
type CreateRoomRequest struct {
	Name           string `json:"name" binding:"required"`
	Category       string `json:"category" binding:"required"`
	Capacity       int    `json:"capacity" binding:"required"`
	BasePriceCents int64  `json:"base_price_cents" binding:"required"`
	IsAvailable    *bool  `json:"is_available,omitempty"`
	Description    string `json:"description"`
}

// Validate validates the CreateRoomRequest
func (req *CreateRoomRequest) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errors.New("name is required")
	}
	if len(req.Name) > 100 {
		return errors.New("name must be at most 100 characters")
	}
	if !RoomCategory(req.Category).valid() {
		return errors.New("invalid category: must be standard, deluxe, suite, or villa")
	}
	if req.Capacity <= 0 {
		return errors.New("capacity must be greater than 0")
	}
	if req.BasePriceCents <= 0 {
		return errors.New("base_price_cents must be greater than 0")
	}
	if len(req.Description) > 2000 {
		return errors.New("description must be at most 2000 characters")
	}
	return nil
}

// UpdateRoomRequest represents a partial room update
type UpdateRoomRequest struct {
	Name           *string `json:"name,omitempty"`
	Category       *string `json:"category,omitempty"`
	Capacity       *int    `json:"capacity,omitempty"`
	BasePriceCents *int64  `json:"base_price_cents,omitempty"`
	IsAvailable    *bool   `json:"is_available,omitempty"`
	Description    *string `json:"description,omitempty"`
}

// Validate validates the UpdateRoomRequest
func (req *UpdateRoomRequest) Validate() error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 100 {
			return errors.New("name must be between 1 and 100 characters")
		}
		req.Name = &name
	}
	if req.Category != nil && !RoomCategory(*req.Category).valid() {
		return errors.New("invalid category: must be standard, deluxe, suite, or villa")
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return errors.New("capacity must be greater than 0")
	}
	if req.BasePriceCents != nil && *req.BasePriceCents <= 0 {
		return errors.New("base_price_cents must be greater than 0")
	}
	if req.Description != nil && len(*req.Description) > 2000 {
		return errors.New("description must be at most 2000 characters")
	}
	return nil
}

// Apply copies the provided fields onto the room
func (req *UpdateRoomRequest) Apply(room *Room) {
	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.Category != nil {
		room.Category = RoomCategory(*req.Category)
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.BasePriceCents != nil {
		room.BasePriceCents = *req.BasePriceCents
	}
	if req.IsAvailable != nil {
		room.IsAvailable = *req.IsAvailable
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
}

// PriceQuote is the result of a price calculation for a stay
type PriceQuote struct {
	RoomID          int64   `json:"room_id"`
	CheckIn         string  `json:"check_in"`
	CheckOut        string  `json:"check_out"`
	Nights          int     `json:"nights"`
	BasePriceCents  int64   `json:"base_price_cents"`
	PeakSeason      bool    `json:"peak_season"`
	LongStay        bool    `json:"long_stay"`
	TotalPriceCents int64   `json:"total_price_cents"`
	Total           float64 `json:"total"`
}
