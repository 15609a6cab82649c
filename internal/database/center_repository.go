package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// CenterRepository handles service center database operations
type CenterRepository struct {
	db *sqlx.DB
}

// NewCenterRepository creates a new CenterRepository
func NewCenterRepository(db *sqlx.DB) *CenterRepository {
	return &CenterRepository{db: db}
}

// GetByID retrieves a service center by ID. Returns (nil, nil) when absent.
func (r *CenterRepository) GetByID(id uuid.UUID) (*models.ServiceCenter, error) {
	var center models.ServiceCenter

	query := `
		SELECT id, name, address, phone, is_active, created_at, updated_at
		FROM service_centers
		WHERE id = $1`

	err := r.db.Get(&center, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service center: %w", err)
	}

	return &center, nil
}
