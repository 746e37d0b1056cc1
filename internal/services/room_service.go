package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// RoomCache memoizes the full room listing
type RoomCache interface {
	GetRooms(ctx context.Context) ([]models.Room, bool, error)
	SetRooms(ctx context.Context, rooms []models.Room) error
	Invalidate(ctx context.Context) error
}

// RoomService handles business logic for rooms and their amenities
type RoomService struct {
	roomRepo    *database.RoomRepository
	amenityRepo *database.AmenityRepository
	imageRepo   *database.ImageRepository
	cache       RoomCache
	logger      *logrus.Logger
}

// NewRoomService creates a new RoomService
func NewRoomService(
	roomRepo *database.RoomRepository,
	amenityRepo *database.AmenityRepository,
	imageRepo *database.ImageRepository,
	cache RoomCache,
	logger *logrus.Logger,
) *RoomService {
	return &RoomService{
		roomRepo:    roomRepo,
		amenityRepo: amenityRepo,
		imageRepo:   imageRepo,
		cache:       cache,
		logger:      logger,
	}
}

// InvalidateListing drops the cached room listing. Failures are logged only.
func (s *RoomService) InvalidateListing(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate room cache")
	}
}

// CreateRoom validates and stores a new room
func (s *RoomService) CreateRoom(ctx context.Context, req *models.CreateRoomRequest) (*models.Room, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	room := &models.Room{
		Name:              req.Name,
		Category:          models.RoomCategory(req.Category),
		Capacity:          req.Capacity,
		BasePriceCents:    req.BasePriceCents,
		DynamicPriceCents: req.BasePriceCents,
		IsAvailable:       true,
		Description:       req.Description,
	}
	if req.IsAvailable != nil {
		room.IsAvailable = *req.IsAvailable
	}

	if err := s.roomRepo.Create(room); err != nil {
		return nil, fromRepository("room", "create", err)
	}
	s.InvalidateListing(ctx)

	s.logger.WithFields(logrus.Fields{
		"room_id":  room.ID,
		"name":     room.Name,
		"category": room.Category,
	}).Info("Room created")

	return room, nil
}

// GetRoom returns a room with its amenities and images
func (s *RoomService) GetRoom(id int64) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(id)
	if err != nil {
		return nil, InternalError("failed to load room", err)
	}
	if room == nil {
		return nil, NotFoundError("room", id)
	}

	if room.Amenities, err = s.roomRepo.ListAmenities(id); err != nil {
		return nil, InternalError("failed to load room amenities", err)
	}
	if room.Images, err = s.imageRepo.List(id); err != nil {
		return nil, InternalError("failed to load room images", err)
	}

	return room, nil
}

// ListRooms returns every room, from the cache when possible
func (s *RoomService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, ok, err := s.cache.GetRooms(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Room cache read failed")
	}
	if ok {
		return rooms, nil
	}

	rooms, err = s.roomRepo.List()
	if err != nil {
		return nil, InternalError("failed to list rooms", err)
	}

	if err := s.cache.SetRooms(ctx, rooms); err != nil {
		s.logger.WithError(err).Warn("Room cache write failed")
	}
	return rooms, nil
}

// ListAvailableRooms returns in-service rooms free for the whole stay
func (s *RoomService) ListAvailableRooms(checkIn, checkOut string, guests int) ([]models.Room, error) {
	stay, err := models.NewStayRange(checkIn, checkOut)
	if err != nil {
		return nil, ValidationError("%s", err.Error())
	}
	if guests < 0 {
		return nil, ValidationError("guests must not be negative")
	}

	rooms, err := s.roomRepo.ListAvailable(stay.CheckIn, stay.CheckOut, guests)
	if err != nil {
		return nil, InternalError("failed to search available rooms", err)
	}
	return rooms, nil
}

// UpdateRoom applies a partial update
func (s *RoomService) UpdateRoom(ctx context.Context, id int64, req *models.UpdateRoomRequest) (*models.Room, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	room, err := s.roomRepo.GetByID(id)
	if err != nil {
		return nil, InternalError("failed to load room", err)
	}
	if room == nil {
		return nil, NotFoundError("room", id)
	}

	req.Apply(room)
	if err := s.roomRepo.Update(room); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundError("room", id)
		}
		return nil, fromRepository("room", "update", err)
	}
	s.InvalidateListing(ctx)

	s.logger.WithField("room_id", id).Info("Room updated")
	return room, nil
}

// DeleteRoom removes a room. Rooms with bookings cannot be deleted.
func (s *RoomService) DeleteRoom(ctx context.Context, id int64) error {
	if err := s.roomRepo.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NotFoundError("room", id)
		}
		return fromRepository("room", "delete", err)
	}
	s.InvalidateListing(ctx)

	s.logger.WithField("room_id", id).Info("Room deleted")
	return nil
}

// AttachAmenity links an existing amenity to an existing room
func (s *RoomService) AttachAmenity(ctx context.Context, roomID, amenityID int64) error {
	if err := s.requireRoomAndAmenity(roomID, amenityID); err != nil {
		return err
	}

	if err := s.roomRepo.AttachAmenity(roomID, amenityID); err != nil {
		return fromRepository("room amenity", "attach", err)
	}
	s.InvalidateListing(ctx)

	s.logger.WithFields(logrus.Fields{"room_id": roomID, "amenity_id": amenityID}).Info("Amenity attached to room")
	return nil
}

// DetachAmenity removes the link between a room and an amenity
func (s *RoomService) DetachAmenity(ctx context.Context, roomID, amenityID int64) error {
	if err := s.roomRepo.DetachAmenity(roomID, amenityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NotFoundError("room amenity", amenityID)
		}
		return InternalError("failed to detach amenity", err)
	}
	s.InvalidateListing(ctx)

	s.logger.WithFields(logrus.Fields{"room_id": roomID, "amenity_id": amenityID}).Info("Amenity detached from room")
	return nil
}

func (s *RoomService) requireRoomAndAmenity(roomID, amenityID int64) error {
	room, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		return InternalError("failed to load room", err)
	}
	if room == nil {
		return NotFoundError("room", roomID)
	}

	amenity, err := s.amenityRepo.GetByID(amenityID)
	if err != nil {
		return InternalError("failed to load amenity", err)
	}
	if amenity == nil {
		return NotFoundError("amenity", amenityID)
	}
	return nil
}
