package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// ImageHandler handles room image records
type ImageHandler struct {
	images  *services.ImageService
	auditor *Auditor
	logger  *logrus.Logger
}

func NewImageHandler(images *services.ImageService, auditor *Auditor, logger *logrus.Logger) *ImageHandler {
	return &ImageHandler{images: images, auditor: auditor, logger: logger}
}

// ListImages handles GET /api/images?room_id=
func (h *ImageHandler) ListImages(c *gin.Context) {
	roomID, ok := queryInt64(c, "room_id")
	if !ok {
		return
	}
	images, err := h.images.ListImages(roomID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images, "count": len(images)})
}

func (h *ImageHandler) GetImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	image, err := h.images.GetImage(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, image)
}

func (h *ImageHandler) CreateImage(c *gin.Context) {
	var req models.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	image, err := h.images.CreateImage(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.auditor.adminAction(c, "image_create", "image", image.ID, map[string]interface{}{"room_id": image.RoomID})
	c.JSON(http.StatusCreated, image)
}

func (h *ImageHandler) UpdateImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	image, err := h.images.UpdateImage(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.auditor.adminAction(c, "image_update", "image", id, nil)
	c.JSON(http.StatusOK, image)
}

func (h *ImageHandler) DeleteImage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.images.DeleteImage(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.auditor.adminAction(c, "image_delete", "image", id, nil)
	c.Status(http.StatusNoContent)
}
