package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// AmenityService handles amenity CRUD
type AmenityService struct {
	amenityRepo *database.AmenityRepository
	rooms       *RoomService
	logger      *logrus.Logger
}

// NewAmenityService creates a new AmenityService. Amenity changes invalidate
// the cached room listing through rooms.
func NewAmenityService(amenityRepo *database.AmenityRepository, rooms *RoomService, logger *logrus.Logger) *AmenityService {
	return &AmenityService{amenityRepo: amenityRepo, rooms: rooms, logger: logger}
}

// CreateAmenity stores a new amenity
func (s *AmenityService) CreateAmenity(req *models.AmenityRequest) (*models.Amenity, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	amenity := &models.Amenity{Name: req.Name, Description: req.Description}
	if err := s.amenityRepo.Create(amenity); err != nil {
		return nil, fromRepository("amenity", "create", err)
	}

	s.logger.WithFields(logrus.Fields{"amenity_id": amenity.ID, "name": amenity.Name}).Info("Amenity created")
	return amenity, nil
}

// GetAmenity returns one amenity
func (s *AmenityService) GetAmenity(id int64) (*models.Amenity, error) {
	amenity, err := s.amenityRepo.GetByID(id)
	if err != nil {
		return nil, InternalError("failed to load amenity", err)
	}
	if amenity == nil {
		return nil, NotFoundError("amenity", id)
	}
	return amenity, nil
}

// ListAmenities returns all amenities
func (s *AmenityService) ListAmenities() ([]models.Amenity, error) {
	amenities, err := s.amenityRepo.List()
	if err != nil {
		return nil, InternalError("failed to list amenities", err)
	}
	return amenities, nil
}

// UpdateAmenity replaces name and description
func (s *AmenityService) UpdateAmenity(ctx context.Context, id int64, req *models.AmenityRequest) (*models.Amenity, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	amenity := &models.Amenity{ID: id, Name: req.Name, Description: req.Description}
	if err := s.amenityRepo.Update(amenity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundError("amenity", id)
		}
		return nil, fromRepository("amenity", "update", err)
	}
	s.rooms.InvalidateListing(ctx)

	s.logger.WithField("amenity_id", id).Info("Amenity updated")
	return s.GetAmenity(id)
}

// DeleteAmenity removes an amenity and its room links
func (s *AmenityService) DeleteAmenity(ctx context.Context, id int64) error {
	if err := s.amenityRepo.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NotFoundError("amenity", id)
		}
		return fromRepository("amenity", "delete", err)
	}
	s.rooms.InvalidateListing(ctx)

	s.logger.WithField("amenity_id", id).Info("Amenity deleted")
	return nil
}
