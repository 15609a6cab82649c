package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// CustomerRepository handles customer database operations
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetByID retrieves a customer by ID. Returns (nil, nil) when absent.
func (r *CustomerRepository) GetByID(id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer

	query := `
		SELECT id, full_name, phone, email, address, created_at, updated_at
		FROM customers
		WHERE id = $1`

	err := r.db.Get(&customer, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &customer, nil
}

// GetByPhone retrieves a customer by normalized phone number.
// Returns (nil, nil) when absent.
func (r *CustomerRepository) GetByPhone(phone string) (*models.Customer, error) {
	var customer models.Customer

	query := `
		SELECT id, full_name, phone, email, address, created_at, updated_at
		FROM customers
		WHERE phone = $1`

	err := r.db.Get(&customer, query, phone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer by phone: %w", err)
	}

	return &customer, nil
}

// GetByEmail retrieves a customer by email. Returns (nil, nil) when absent.
func (r *CustomerRepository) GetByEmail(email string) (*models.Customer, error) {
	var customer models.Customer

	query := `
		SELECT id, full_name, phone, email, address, created_at, updated_at
		FROM customers
		WHERE email = $1`

	err := r.db.Get(&customer, query, email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer by email: %w", err)
	}

	return &customer, nil
}

// Create inserts a new customer
func (r *CustomerRepository) Create(customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt

	query := `
		INSERT INTO customers (id, full_name, phone, email, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		customer.ID, customer.FullName, customer.Phone, customer.Email, customer.Address,
		customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// Update updates a customer's contact details
func (r *CustomerRepository) Update(customer *models.Customer) error {
	customer.UpdatedAt = time.Now()

	query := `
		UPDATE customers
		SET full_name = $2, email = $3, address = $4, updated_at = $5
		WHERE id = $1`

	_, err := r.db.Exec(query,
		customer.ID, customer.FullName, customer.Email, customer.Address, customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	return nil
}
