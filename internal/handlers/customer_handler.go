package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// CustomerHandler handles customer CRUD for front desk staff
type CustomerHandler struct {
	customers *services.CustomerService
	auditor   *Auditor
	logger    *logrus.Logger
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customers *services.CustomerService, auditor *Auditor, logger *logrus.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, auditor: auditor, logger: logger}
}

// ListCustomers handles GET /api/customers?limit=&offset=
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	limit, offset, ok := page(c)
	if !ok {
		return
	}
	customers, err := h.customers.ListCustomers(limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers, "count": len(customers)})
}

// GetCustomer handles GET /api/customers/:id
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.customers.GetCustomer(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// CreateCustomer handles POST /api/customers
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req models.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	customer, err := h.customers.CreateCustomer(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.auditor.adminAction(c, "customer_create", "customer", customer.ID, nil)
	c.JSON(http.StatusCreated, customer)
}

// UpdateCustomer handles PUT /api/customers/:id
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	customer, err := h.customers.UpdateCustomer(id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.auditor.adminAction(c, "customer_update", "customer", id, nil)
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /api/customers/:id. Customers with bookings cannot be deleted.
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.customers.DeleteCustomer(id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.auditor.adminAction(c, "customer_delete", "customer", id, nil)
	c.Status(http.StatusNoContent)
}
