package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/internal/services"
	"github.com/lagoonresort/reservation-backend/pkg/payfast"
	"github.com/sirupsen/logrus"
)

// PaymentHandler handles PayFast and Stripe payment requests
type PaymentHandler struct {
	payments *services.PaymentService
	logger   *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger,
	}
}

// CreatePayFastRedirect handles POST /api/payment/payfast/:bookingId
func (h *PaymentHandler) CreatePayFastRedirect(c *gin.Context) {
	bookingID, ok := idParam(c, "bookingId")
	if !ok {
		return
	}

	resp, err := h.payments.CreatePayFastRedirect(bookingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Notify handles POST /api/payment/notify, the PayFast ITN callback.
// PayFast posts form fields and only looks at the status code.
func (h *PaymentHandler) Notify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		badRequest(c, "invalid form body")
		return
	}

	outcome, err := h.payments.HandlePaymentNotification(c.Request.Context(), payfast.FieldsFromForm(c.Request.PostForm))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// ChargeWithStripe handles POST /api/payment/stripe/:bookingId
func (h *PaymentHandler) ChargeWithStripe(c *gin.Context) {
	bookingID, ok := idParam(c, "bookingId")
	if !ok {
		return
	}

	var req models.StripeChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	resp, err := h.payments.ChargeWithStripe(c.Request.Context(), bookingID, req.PaymentToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListPayments handles GET /api/payments?booking_id=&limit=&offset=
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	bookingID, ok := queryInt64(c, "booking_id")
	if !ok {
		return
	}
	limit, offset, ok := page(c)
	if !ok {
		return
	}

	payments, err := h.payments.ListPayments(bookingID, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "count": len(payments)})
}
