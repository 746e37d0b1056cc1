package models

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Amenity represents a room feature (pool access, minibar, ...)
type Amenity struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AmenityRequest is used for both create and update
type AmenityRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// Validate validates the AmenityRequest
func (req *AmenityRequest) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errors.New("name is required")
	}
	if len(req.Name) > 100 {
		return errors.New("name must be at most 100 characters")
	}
	if len(req.Description) > 500 {
		return errors.New("description must be at most 500 characters")
	}
	return nil
}

// Image represents a photo attached to a room
type Image struct {
	ID        int64     `json:"id" db:"id"`
	RoomID    int64     `json:"room_id" db:"room_id"`
	URL       string    `json:"url" db:"url"`
	Caption   string    `json:"caption" db:"caption"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ImageRequest is used for both create and update
type ImageRequest struct {
	RoomID  int64  `json:"room_id" binding:"required"`
	URL     string `json:"url" binding:"required"`
	Caption string `json:"caption"`
}

// Validate validates the ImageRequest
func (req *ImageRequest) Validate() error {
	if req.RoomID <= 0 {
		return errors.New("room_id is required")
	}
	if len(req.URL) > 500 {
		return errors.New("url must be at most 500 characters")
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("url must be an absolute http or https URL")
	}
	if len(req.Caption) > 200 {
		return errors.New("caption must be at most 200 characters")
	}
	return nil
}
