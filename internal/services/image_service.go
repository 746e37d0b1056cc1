package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// ImageService handles room image CRUD
type ImageService struct {
	imageRepo *database.ImageRepository
	roomRepo  *database.RoomRepository
	rooms     *RoomService
	logger    *logrus.Logger
}

// NewImageService creates a new ImageService
func NewImageService(
	imageRepo *database.ImageRepository,
	roomRepo *database.RoomRepository,
	rooms *RoomService,
	logger *logrus.Logger,
) *ImageService {
	return &ImageService{imageRepo: imageRepo, roomRepo: roomRepo, rooms: rooms, logger: logger}
}

func (s *ImageService) requireRoom(roomID int64) error {
	room, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		return InternalError("failed to load room", err)
	}
	if room == nil {
		return NotFoundError("room", roomID)
	}
	return nil
}

// CreateImage attaches an image to an existing room
func (s *ImageService) CreateImage(ctx context.Context, req *models.ImageRequest) (*models.Image, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError("%s", err.Error())
	}
	if err := s.requireRoom(req.RoomID); err != nil {
		return nil, err
	}

	image := &models.Image{RoomID: req.RoomID, URL: req.URL, Caption: req.Caption}
	if err := s.imageRepo.Create(image); err != nil {
		return nil, fromRepository("image", "create", err)
	}
	s.rooms.InvalidateListing(ctx)

	s.logger.WithFields(logrus.Fields{"image_id": image.ID, "room_id": image.RoomID}).Info("Image created")
	return image, nil
}

// GetImage returns one image
func (s *ImageService) GetImage(id int64) (*models.Image, error) {
	image, err := s.imageRepo.GetByID(id)
	if err != nil {
		return nil, InternalError("failed to load image", err)
	}
	if image == nil {
		return nil, NotFoundError("image", id)
	}
	return image, nil
}

// ListImages returns images, optionally for one room
func (s *ImageService) ListImages(roomID int64) ([]models.Image, error) {
	images, err := s.imageRepo.List(roomID)
	if err != nil {
		return nil, InternalError("failed to list images", err)
	}
	return images, nil
}

// UpdateImage replaces an image's fields
func (s *ImageService) UpdateImage(ctx context.Context, id int64, req *models.ImageRequest) (*models.Image, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError("%s", err.Error())
	}
	if err := s.requireRoom(req.RoomID); err != nil {
		return nil, err
	}

	image := &models.Image{ID: id, RoomID: req.RoomID, URL: req.URL, Caption: req.Caption}
	if err := s.imageRepo.Update(image); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundError("image", id)
		}
		return nil, fromRepository("image", "update", err)
	}
	s.rooms.InvalidateListing(ctx)

	s.logger.WithField("image_id", id).Info("Image updated")
	return s.GetImage(id)
}

// DeleteImage removes an image
func (s *ImageService) DeleteImage(ctx context.Context, id int64) error {
	if err := s.imageRepo.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NotFoundError("image", id)
		}
		return InternalError("failed to delete image", err)
	}
	s.rooms.InvalidateListing(ctx)

	s.logger.WithField("image_id", id).Info("Image deleted")
	return nil
}
