package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// AmenityHandler handles amenity CRUD
type AmenityHandler struct {
	amenities *services.AmenityService
	auditor   *Auditor
	logger    *logrus.Logger
}

func NewAmenityHandler(amenities *services.AmenityService, auditor *Auditor, logger *logrus.Logger) *AmenityHandler {
	return &AmenityHandler{amenities: amenities, auditor: auditor, logger: logger}
}

func (h *AmenityHandler) ListAmenities(c *gin.Context) {
	amenities, err := h.amenities.ListAmenities()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amenities": amenities, "count": len(amenities)})
}

func (h *AmenityHandler) GetAmenity(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	amenity, err := h.amenities.GetAmenity(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, amenity)
}

func (h *AmenityHandler) CreateAmenity(c *gin.Context) {
	var req models.AmenityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amenity, err := h.amenities.CreateAmenity(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.auditor.adminAction(c, "amenity_create", "amenity", amenity.ID, nil)
	c.JSON(http.StatusCreated, amenity)
}

func (h *AmenityHandler) UpdateAmenity(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.AmenityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amenity, err := h.amenities.UpdateAmenity(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.auditor.adminAction(c, "amenity_update", "amenity", id, nil)
	c.JSON(http.StatusOK, amenity)
}

func (h *AmenityHandler) DeleteAmenity(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.amenities.DeleteAmenity(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.auditor.adminAction(c, "amenity_delete", "amenity", id, nil)
	c.Status(http.StatusNoContent)
}
