package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// VehicleRepository handles vehicle database operations
type VehicleRepository struct {
	db *sqlx.DB
}

// NewVehicleRepository creates a new VehicleRepository
func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// GetByPlate retrieves a vehicle by license plate. Returns (nil, nil) when absent.
func (r *VehicleRepository) GetByPlate(plate string) (*models.Vehicle, error) {
	var vehicle models.Vehicle

	query := `
		SELECT id, customer_id, license_plate, vin, model, created_at, updated_at
		FROM vehicles
		WHERE license_plate = $1`

	err := r.db.Get(&vehicle, query, plate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle by plate: %w", err)
	}

	return &vehicle, nil
}

// GetByVIN retrieves a vehicle by VIN. Returns (nil, nil) when absent.
func (r *VehicleRepository) GetByVIN(vin string) (*models.Vehicle, error) {
	var vehicle models.Vehicle

	query := `
		SELECT id, customer_id, license_plate, vin, model, created_at, updated_at
		FROM vehicles
		WHERE vin = $1`

	err := r.db.Get(&vehicle, query, vin)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle by VIN: %w", err)
	}

	return &vehicle, nil
}

// Create inserts a new vehicle
func (r *VehicleRepository) Create(vehicle *models.Vehicle) error {
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = vehicle.CreatedAt

	query := `
		INSERT INTO vehicles (id, customer_id, license_plate, vin, model, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		vehicle.ID, vehicle.CustomerID, vehicle.LicensePlate, vehicle.VIN, vehicle.Model,
		vehicle.CreatedAt, vehicle.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	return nil
}

// Update updates a vehicle's owner and details
func (r *VehicleRepository) Update(vehicle *models.Vehicle) error {
	vehicle.UpdatedAt = time.Now()

	query := `
		UPDATE vehicles
		SET customer_id = $2, license_plate = $3, vin = $4, model = $5, updated_at = $6
		WHERE id = $1`

	_, err := r.db.Exec(query,
		vehicle.ID, vehicle.CustomerID, vehicle.LicensePlate, vehicle.VIN, vehicle.Model,
		vehicle.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}

	return nil
}
