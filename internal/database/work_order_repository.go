package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// WorkOrderRepository handles work order database operations
type WorkOrderRepository struct {
	db *sqlx.DB
}

// NewWorkOrderRepository creates a new WorkOrderRepository
func NewWorkOrderRepository(db *sqlx.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

// GetByBookingID retrieves the work order for a booking. Returns
// (nil, nil) when absent; this is the idempotence lookup used during
// payment confirmation.
func (r *WorkOrderRepository) GetByBookingID(bookingID uuid.UUID) (*models.WorkOrder, error) {
	var workOrder models.WorkOrder

	query := `
		SELECT id, booking_id, technician_id, status, created_at, updated_at
		FROM work_orders
		WHERE booking_id = $1`

	err := r.db.Get(&workOrder, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work order by booking: %w", err)
	}

	return &workOrder, nil
}

// Create inserts a new work order. The UNIQUE (booking_id) index
// enforces at most one work order per booking.
func (r *WorkOrderRepository) Create(workOrder *models.WorkOrder) error {
	if workOrder.ID == uuid.Nil {
		workOrder.ID = uuid.New()
	}
	workOrder.CreatedAt = time.Now()
	workOrder.UpdatedAt = workOrder.CreatedAt

	query := `
		INSERT INTO work_orders (id, booking_id, technician_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query,
		workOrder.ID, workOrder.BookingID, workOrder.TechnicianID, workOrder.Status,
		workOrder.CreatedAt, workOrder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create work order: %w", err)
	}

	return nil
}
