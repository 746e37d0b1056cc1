package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/internal/services"
	"github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	bookings *services.BookingService
	auditor  *Auditor
	logger   *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings *services.BookingService, auditor *Auditor, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		auditor:  auditor,
		logger:   logger,
	}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// GetBooking handles GET /api/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.GetBooking(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// filter reads the listing filter shared by ListBookings and ExportBookings
func (h *BookingHandler) filter(c *gin.Context) (models.BookingFilter, bool) {
	roomID, ok := queryInt64(c, "room_id")
	if !ok {
		return models.BookingFilter{}, false
	}
	customerID, ok := queryInt64(c, "customer_id")
	if !ok {
		return models.BookingFilter{}, false
	}
	limit, offset, ok := page(c)
	if !ok {
		return models.BookingFilter{}, false
	}

	return models.BookingFilter{
		Status:     models.BookingStatus(c.Query("status")),
		RoomID:     roomID,
		CustomerID: customerID,
		Limit:      limit,
		Offset:     offset,
	}, true
}

// ListBookings handles GET /api/bookings?status=&room_id=&customer_id=&limit=&offset=
func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter, ok := h.filter(c)
	if !ok {
		return
	}

	bookings, err := h.bookings.ListBookings(filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// UpdateBooking handles PUT /api/bookings/:id. Only pending bookings can move dates.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	booking, err := h.bookings.UpdateBookingDates(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.auditor.adminAction(c, "booking_update", "booking", id, map[string]interface{}{
		"check_in":  req.CheckIn,
		"check_out": req.CheckOut,
	})
	c.JSON(http.StatusOK, booking)
}

// DeleteBooking handles DELETE /api/bookings/:id
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.bookings.DeleteBooking(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.auditor.adminAction(c, "booking_delete", "booking", id, nil)
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) transition(c *gin.Context, action string, fn func(context.Context, int64) (*models.Booking, error)) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	booking, err := fn(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.auditor.adminAction(c, action, "booking", id, map[string]interface{}{"status": booking.Status})
	c.JSON(http.StatusOK, booking)
}

// CancelBooking handles POST /api/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	h.transition(c, "booking_cancel", h.bookings.CancelBooking)
}

// CompleteBooking handles POST /api/bookings/:id/complete
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	h.transition(c, "booking_complete", h.bookings.CompleteBooking)
}

// RefundBooking handles POST /api/bookings/:id/refund
func (h *BookingHandler) RefundBooking(c *gin.Context) {
	h.transition(c, "booking_refund", h.bookings.RefundBooking)
}

// ExportBookings handles GET /api/bookings/export and returns an .xlsx workbook
func (h *BookingHandler) ExportBookings(c *gin.Context) {
	filter, ok := h.filter(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.bookings.ExportBookings(&buf, filter); err != nil {
		respondError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("bookings-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
