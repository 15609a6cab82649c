package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// ServiceRepository handles maintenance service database operations
type ServiceRepository struct {
	db *sqlx.DB
}

// NewServiceRepository creates a new ServiceRepository
func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// GetByID retrieves a service by ID. Returns (nil, nil) when absent.
func (r *ServiceRepository) GetByID(id uuid.UUID) (*models.Service, error) {
	var service models.Service

	query := `
		SELECT id, name, description, base_price, is_active, created_at, updated_at
		FROM services
		WHERE id = $1`

	err := r.db.Get(&service, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	return &service, nil
}
