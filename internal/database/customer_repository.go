package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lagoonresort/reservation-backend/internal/models"
)

// CustomerRepository handles customer database operations
type CustomerRepository struct {
	db DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, first_name, last_name, email, phone, user_id, created_at, updated_at`

// rowQuerier is satisfied by both the connection and a transaction
type rowQuerier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Create inserts a customer
func (r *CustomerRepository) Create(customer *models.Customer) error {
	return insertCustomer(r.db, customer)
}

func insertCustomer(q rowQuerier, customer *models.Customer) error {
	query := `
		INSERT INTO customers (first_name, last_name, email, phone, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(
		query,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.Phone,
		customer.UserID,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", translateError(err))
	}
	return nil
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(id int64) (*models.Customer, error) {
	return r.getBy(`id = $1`, id)
}

// GetByEmail retrieves a customer by (lowercased) email
func (r *CustomerRepository) GetByEmail(email string) (*models.Customer, error) {
	return r.getBy(`email = $1`, email)
}

func (r *CustomerRepository) getBy(where string, arg interface{}) (*models.Customer, error) {
	var customer models.Customer
	query := `SELECT ` + customerColumns + ` FROM customers WHERE ` + where

	if err := r.db.Get(&customer, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}

// List retrieves customers page by page
func (r *CustomerRepository) List(limit, offset int) ([]models.Customer, error) {
	customers := []models.Customer{}
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY id LIMIT $1 OFFSET $2`

	if err := r.db.Select(&customers, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

// Update saves the customer contact details
func (r *CustomerRepository) Update(customer *models.Customer) error {
	query := `
		UPDATE customers
		SET first_name = $1, last_name = $2, email = $3, phone = $4, updated_at = NOW()
		WHERE id = $5
	`

	result, err := r.db.Exec(
		query,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.Phone,
		customer.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", translateError(err))
	}
	return expectOneRow(result)
}

// Delete removes a customer. Customers with bookings cannot be deleted (ErrReferenced).
func (r *CustomerRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", translateError(err))
	}
	return expectOneRow(result)
}
