package services

import (
	"database/sql"
	"errors"

	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/pkg/validator"
	"github.com/sirupsen/logrus"
)

// CustomerService handles customer CRUD and lookup-or-create for bookings
type CustomerService struct {
	customerRepo   *database.CustomerRepository
	phoneValidator *validator.PhoneValidator
	logger         *logrus.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo *database.CustomerRepository,
	phoneValidator *validator.PhoneValidator,
	logger *logrus.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo:   customerRepo,
		phoneValidator: phoneValidator,
		logger:         logger,
	}
}

// normalize validates the request and rewrites the phone to E.164
func (s *CustomerService) normalize(req *models.CustomerRequest) error {
	if err := req.Validate(); err != nil {
		return ValidationError("%s", err.Error())
	}

	phone, err := s.phoneValidator.Validate(req.Phone)
	if err != nil {
		return ValidationError("invalid phone: %s", err.Error())
	}
	req.Phone = phone
	return nil
}

// CreateCustomer stores a new customer. Email and phone are unique, so a
// duplicate of either is a conflict.
func (s *CustomerService) CreateCustomer(req *models.CustomerRequest) (*models.Customer, error) {
	if err := s.normalize(req); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if err := s.customerRepo.Create(customer); err != nil {
		return nil, fromRepository("customer", "create", err)
	}

	s.logger.WithField("customer_id", customer.ID).Info("Customer created")
	return customer, nil
}

// ResolveForBooking returns the customer with the request's email. An unknown
// email yields an unsaved customer (ID 0) that the booking transaction inserts.
func (s *CustomerService) ResolveForBooking(req *models.CustomerRequest) (*models.Customer, error) {
	if err := s.normalize(req); err != nil {
		return nil, err
	}

	existing, err := s.customerRepo.GetByEmail(req.Email)
	if err != nil {
		return nil, InternalError("failed to look up customer", err)
	}
	if existing != nil {
		return existing, nil
	}

	return &models.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}, nil
}

// GetCustomer returns one customer
func (s *CustomerService) GetCustomer(id int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(id)
	if err != nil {
		return nil, InternalError("failed to load customer", err)
	}
	if customer == nil {
		return nil, NotFoundError("customer", id)
	}
	return customer, nil
}

// ListCustomers returns a page of customers
func (s *CustomerService) ListCustomers(limit, offset int) ([]models.Customer, error) {
	customers, err := s.customerRepo.List(clampLimit(limit), max(offset, 0))
	if err != nil {
		return nil, InternalError("failed to list customers", err)
	}
	return customers, nil
}

// UpdateCustomer replaces contact details
func (s *CustomerService) UpdateCustomer(id int64, req *models.CustomerRequest) (*models.Customer, error) {
	if err := s.normalize(req); err != nil {
		return nil, err
	}

	customer, err := s.GetCustomer(id)
	if err != nil {
		return nil, err
	}
	customer.FirstName = req.FirstName
	customer.LastName = req.LastName
	customer.Email = req.Email
	customer.Phone = req.Phone

	if err := s.customerRepo.Update(customer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundError("customer", id)
		}
		return nil, fromRepository("customer", "update", err)
	}

	s.logger.WithField("customer_id", id).Info("Customer updated")
	return customer, nil
}

// DeleteCustomer removes a customer without bookings
func (s *CustomerService) DeleteCustomer(id int64) error {
	if err := s.customerRepo.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NotFoundError("customer", id)
		}
		return fromRepository("customer", "delete", err)
	}

	s.logger.WithField("customer_id", id).Info("Customer deleted")
	return nil
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// clampLimit applies the default and maximum page size
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
