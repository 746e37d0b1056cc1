package services

import (
	"time"

	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	peakSeasonMonth   = time.December
	longStayThreshold = 7 // nights; longer stays get the discount
)

// StayPrice is the breakdown of a stay's total
type StayPrice struct {
	Nights     int
	PeakSeason bool
	LongStay   bool
	TotalCents int64
}

// CalculateStayPrice prices a stay: nights x base, then +20% when check-in is
// in December, then -10% when the stay is longer than 7 nights. Each step
// rounds half-up to whole cents.
func CalculateStayPrice(basePriceCents int64, stay models.StayRange) StayPrice {
	price := StayPrice{Nights: stay.Nights()}
	total := basePriceCents * int64(price.Nights)

	if stay.CheckIn.Month() == peakSeasonMonth {
		price.PeakSeason = true
		total = (total*12 + 5) / 10
	}

	if price.Nights > longStayThreshold {
		price.LongStay = true
		total = (total*9 + 5) / 10
	}

	price.TotalCents = total
	return price
}

// PricingService quotes stays and refreshes the published nightly rate of rooms
type PricingService struct {
	roomRepo *database.RoomRepository
	logger   *logrus.Logger
}

// NewPricingService creates a new PricingService
func NewPricingService(roomRepo *database.RoomRepository, logger *logrus.Logger) *PricingService {
	return &PricingService{
		roomRepo: roomRepo,
		logger:   logger,
	}
}

// CalculatePrice quotes a stay in a room
func (s *PricingService) CalculatePrice(roomID int64, checkIn, checkOut string) (*models.PriceQuote, error) {
	stay, err := models.NewStayRange(checkIn, checkOut)
	if err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	room, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		return nil, InternalError("failed to load room", err)
	}
	if room == nil {
		return nil, NotFoundError("room", roomID)
	}

	price := CalculateStayPrice(room.BasePriceCents, stay)
	return &models.PriceQuote{
		RoomID:          room.ID,
		CheckIn:         stay.CheckIn.Format(models.DateLayout),
		CheckOut:        stay.CheckOut.Format(models.DateLayout),
		Nights:          price.Nights,
		BasePriceCents:  room.BasePriceCents,
		PeakSeason:      price.PeakSeason,
		LongStay:        price.LongStay,
		TotalPriceCents: price.TotalCents,
		Total:           float64(price.TotalCents) / 100,
	}, nil
}

// RefreshDynamicPrice sets the room's dynamic price to the one-night price of
// a stay starting on asOf
func (s *PricingService) RefreshDynamicPrice(roomID int64, asOf time.Time) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		return nil, InternalError("failed to load room", err)
	}
	if room == nil {
		return nil, NotFoundError("room", roomID)
	}

	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	price := CalculateStayPrice(room.BasePriceCents, models.StayRange{CheckIn: day, CheckOut: day.AddDate(0, 0, 1)})

	if err := s.roomRepo.UpdateDynamicPrice(room.ID, price.TotalCents); err != nil {
		return nil, InternalError("failed to update dynamic price", err)
	}
	room.DynamicPriceCents = price.TotalCents

	s.logger.WithFields(logrus.Fields{
		"room_id":             room.ID,
		"dynamic_price_cents": price.TotalCents,
		"as_of":               day.Format(models.DateLayout),
	}).Info("Room dynamic price refreshed")

	return room, nil
}

// RefreshAllDynamicPrices reprices every room for asOf and returns how many were updated.
// A failing room is logged and skipped.
func (s *PricingService) RefreshAllDynamicPrices(asOf time.Time) (int, error) {
	rooms, err := s.roomRepo.List()
	if err != nil {
		return 0, InternalError("failed to list rooms", err)
	}

	updated := 0
	for _, room := range rooms {
		if _, err := s.RefreshDynamicPrice(room.ID, asOf); err != nil {
			s.logger.WithError(err).WithField("room_id", room.ID).Warn("Failed to refresh dynamic price")
			continue
		}
		updated++
	}
	return updated, nil
}
