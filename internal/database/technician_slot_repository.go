package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// TechnicianSlotRepository handles technician time slot database operations
type TechnicianSlotRepository struct {
	db *sqlx.DB
}

// NewTechnicianSlotRepository creates a new TechnicianSlotRepository
func NewTechnicianSlotRepository(db *sqlx.DB) *TechnicianSlotRepository {
	return &TechnicianSlotRepository{db: db}
}

// GetByID retrieves a technician time slot by ID. Returns (nil, nil) when absent.
func (r *TechnicianSlotRepository) GetByID(id uuid.UUID) (*models.TechnicianTimeSlot, error) {
	var slot models.TechnicianTimeSlot

	query := `
		SELECT id, technician_id, slot_id, work_date, is_available, booking_id, created_at, updated_at
		FROM technician_time_slots
		WHERE id = $1`

	err := r.db.Get(&slot, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get technician time slot: %w", err)
	}

	return &slot, nil
}

// Reserve binds a technician time slot to a booking. The guarded UPDATE
// only succeeds while the slot is free, and the UNIQUE
// (technician_id, slot_id, work_date) index backs it up at the storage
// layer. Both a lost guard and a 23505 from the index translate to
// models.ErrSlotTaken, so concurrent callers racing past the
// availability pre-check see a single consistent conflict outcome.
func (r *TechnicianSlotRepository) Reserve(slotID, bookingID uuid.UUID) error {
	query := `
		UPDATE technician_time_slots
		SET booking_id = $2, is_available = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_available = TRUE AND booking_id IS NULL`

	result, err := r.db.Exec(query, slotID, bookingID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrSlotTaken
		}
		return fmt.Errorf("failed to reserve technician time slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reservation result: %w", err)
	}
	if rows == 0 {
		return models.ErrSlotTaken
	}

	return nil
}

// ReleaseByBooking clears a booking's slot binding and restores
// availability. Used when a booking is cancelled.
func (r *TechnicianSlotRepository) ReleaseByBooking(bookingID uuid.UUID) error {
	query := `
		UPDATE technician_time_slots
		SET booking_id = NULL, is_available = TRUE, updated_at = NOW()
		WHERE booking_id = $1`

	if _, err := r.db.Exec(query, bookingID); err != nil {
		return fmt.Errorf("failed to release technician time slot: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
