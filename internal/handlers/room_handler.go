package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// RoomHandler handles room, availability and pricing requests
type RoomHandler struct {
	rooms   *services.RoomService
	pricing *services.PricingService
	auditor *Auditor
	logger  *logrus.Logger
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(rooms *services.RoomService, pricing *services.PricingService, auditor *Auditor, logger *logrus.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:   rooms,
		pricing: pricing,
		auditor: auditor,
		logger:  logger,
	}
}

// ListRooms handles GET /api/rooms
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.rooms.ListRooms(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "count": len(rooms)})
}

// ListAvailableRooms handles GET /api/rooms/available?check_in=&check_out=&guests=
func (h *RoomHandler) ListAvailableRooms(c *gin.Context) {
	guests, ok := queryInt(c, "guests")
	if !ok {
		return
	}

	rooms, err := h.rooms.ListAvailableRooms(c.Query("check_in"), c.Query("check_out"), guests)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "count": len(rooms)})
}

// GetRoom handles GET /api/rooms/:id
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	room, err := h.rooms.GetRoom(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// GetRoomPrice handles GET /api/rooms/:id/price?check_in=&check_out=
func (h *RoomHandler) GetRoomPrice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	quote, err := h.pricing.CalculatePrice(id, c.Query("check_in"), c.Query("check_out"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// CreateRoom handles POST /api/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req models.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.auditor.adminAction(c, "room_create", "room", room.ID, map[string]interface{}{"name": room.Name})
	c.JSON(http.StatusCreated, room)
}

// UpdateRoom handles PUT /api/rooms/:id
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	room, err := h.rooms.UpdateRoom(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.auditor.adminAction(c, "room_update", "room", id, nil)
	c.JSON(http.StatusOK, room)
}

// DeleteRoom handles DELETE /api/rooms/:id
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.rooms.DeleteRoom(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.auditor.adminAction(c, "room_delete", "room", id, nil)
	c.Status(http.StatusNoContent)
}

// RepriceRoom handles POST /api/rooms/:id/reprice?date=YYYY-MM-DD. The date defaults to today.
func (h *RoomHandler) RepriceRoom(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	asOf := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		asOf = parsed
	}

	room, err := h.pricing.RefreshDynamicPrice(id, asOf)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.rooms.InvalidateListing(c.Request.Context())

	h.auditor.adminAction(c, "room_reprice", "room", id, map[string]interface{}{
		"dynamic_price_cents": room.DynamicPriceCents,
	})
	c.JSON(http.StatusOK, room)
}

// AttachAmenity handles POST /api/rooms/:id/amenities/:amenityId
func (h *RoomHandler) AttachAmenity(c *gin.Context) {
	roomID, ok := idParam(c, "id")
	if !ok {
		return
	}
	amenityID, ok := idParam(c, "amenityId")
	if !ok {
		return
	}

	if err := h.rooms.AttachAmenity(c.Request.Context(), roomID, amenityID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.auditor.adminAction(c, "room_amenity_attach", "room", roomID, map[string]interface{}{"amenity_id": amenityID})
	c.JSON(http.StatusOK, gin.H{"message": "Amenity attached"})
}

// DetachAmenity handles DELETE /api/rooms/:id/amenities/:amenityId
func (h *RoomHandler) DetachAmenity(c *gin.Context) {
	roomID, ok := idParam(c, "id")
	if !ok {
		return
	}
	amenityID, ok := idParam(c, "amenityId")
	if !ok {
		return
	}

	if err := h.rooms.DetachAmenity(c.Request.Context(), roomID, amenityID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.auditor.adminAction(c, "room_amenity_detach", "room", roomID, map[string]interface{}{"amenity_id": amenityID})
	c.Status(http.StatusNoContent)
}
