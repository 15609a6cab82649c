package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// TechnicianRepository handles technician database operations
type TechnicianRepository struct {
	db *sqlx.DB
}

// NewTechnicianRepository creates a new TechnicianRepository
func NewTechnicianRepository(db *sqlx.DB) *TechnicianRepository {
	return &TechnicianRepository{db: db}
}

// GetByCenterID retrieves active technicians assigned to a center
func (r *TechnicianRepository) GetByCenterID(centerID uuid.UUID) ([]models.Technician, error) {
	var technicians []models.Technician

	query := `
		SELECT id, center_id, full_name, is_active, created_at, updated_at
		FROM technicians
		WHERE center_id = $1 AND is_active = TRUE
		ORDER BY full_name`

	if err := r.db.Select(&technicians, query, centerID); err != nil {
		return nil, fmt.Errorf("failed to get technicians by center: %w", err)
	}

	return technicians, nil
}

// GetAll retrieves all active technicians across the chain
func (r *TechnicianRepository) GetAll() ([]models.Technician, error) {
	var technicians []models.Technician

	query := `
		SELECT id, center_id, full_name, is_active, created_at, updated_at
		FROM technicians
		WHERE is_active = TRUE
		ORDER BY full_name`

	if err := r.db.Select(&technicians, query); err != nil {
		return nil, fmt.Errorf("failed to get technicians: %w", err)
	}

	return technicians, nil
}
