package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// BookingRepository handles booking database operations
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// GenerateBookingCode generates a unique booking code
// Format: EVC-YYYYMMDD-XXXXXX (6 char alphanumeric)
// Example: EVC-20260901-A1B2C3
func (r *BookingRepository) GenerateBookingCode() (string, error) {
	todayStr := time.Now().Format("20060102")

	for attempts := 0; attempts < 10; attempts++ {
		randomBytes := make([]byte, 3)
		if _, err := rand.Read(randomBytes); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		randomStr := strings.ToUpper(hex.EncodeToString(randomBytes))

		newCode := fmt.Sprintf("EVC-%s-%s", todayStr, randomStr)

		var count int
		err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE booking_code = $1`, newCode)
		if err != nil {
			return "", fmt.Errorf("failed to check code uniqueness: %w", err)
		}

		if count == 0 {
			return newCode, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique booking code after 10 attempts")
}

// GenerateOrderCode generates a unique payment provider order code.
// Order codes are positive integers the provider echoes back on
// webhooks and status checks.
func (r *BookingRepository) GenerateOrderCode() (int64, error) {
	for attempts := 0; attempts < 10; attempts++ {
		randomBytes := make([]byte, 8)
		if _, err := rand.Read(randomBytes); err != nil {
			return 0, fmt.Errorf("failed to generate random bytes: %w", err)
		}
		// Keep within the provider's safe integer range
		orderCode := int64(binary.BigEndian.Uint64(randomBytes) % 9_000_000_000_000)
		if orderCode == 0 {
			continue
		}

		var count int
		err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE order_code = $1`, orderCode)
		if err != nil {
			return 0, fmt.Errorf("failed to check order code uniqueness: %w", err)
		}

		if count == 0 {
			return orderCode, nil
		}
	}

	return 0, fmt.Errorf("failed to generate unique order code after 10 attempts")
}

// Create inserts a new booking. Booking and order codes are generated
// here when unset.
func (r *BookingRepository) Create(booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.BookingCode == "" {
		code, err := r.GenerateBookingCode()
		if err != nil {
			return err
		}
		booking.BookingCode = code
	}
	if booking.OrderCode == 0 {
		orderCode, err := r.GenerateOrderCode()
		if err != nil {
			return err
		}
		booking.OrderCode = orderCode
	}
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	query := `
		INSERT INTO bookings (
			id, booking_code, order_code, customer_id, vehicle_id, center_id, service_id,
			technician_slot_id, status, estimated_cost, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)`

	_, err := r.db.Exec(query,
		booking.ID, booking.BookingCode, booking.OrderCode,
		booking.CustomerID, booking.VehicleID, booking.CenterID, booking.ServiceID,
		booking.TechnicianSlotID, booking.Status, booking.EstimatedCost,
		booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

const bookingColumns = `
	id, booking_code, order_code, customer_id, vehicle_id, center_id, service_id,
	technician_slot_id, status, estimated_cost, created_at, updated_at`

// GetByID retrieves a booking by ID. Returns (nil, nil) when absent.
func (r *BookingRepository) GetByID(id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := r.db.Get(&booking, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

// GetByCode retrieves a booking by its booking code. Returns (nil, nil) when absent.
func (r *BookingRepository) GetByCode(code string) (*models.Booking, error) {
	var booking models.Booking

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_code = $1`

	err := r.db.Get(&booking, query, code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by code: %w", err)
	}

	return &booking, nil
}

// GetByOrderCode retrieves a booking by its payment provider order code.
// Returns (nil, nil) when absent.
func (r *BookingRepository) GetByOrderCode(orderCode int64) (*models.Booking, error) {
	var booking models.Booking

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE order_code = $1`

	err := r.db.Get(&booking, query, orderCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by order code: %w", err)
	}

	return &booking, nil
}

// BindSlot records the booking's durable slot binding after the
// technician time slot reservation succeeded
func (r *BookingRepository) BindSlot(bookingID, technicianSlotID uuid.UUID) error {
	query := `
		UPDATE bookings
		SET technician_slot_id = $2, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.Exec(query, bookingID, technicianSlotID); err != nil {
		return fmt.Errorf("failed to bind slot to booking: %w", err)
	}

	return nil
}

// UpdateStatus persists a booking status transition
func (r *BookingRepository) UpdateStatus(bookingID uuid.UUID, status models.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.Exec(query, bookingID, status); err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	return nil
}

// CancelOrphanedPending cancels PENDING bookings that never received a
// slot binding and are older than the given threshold. These are left
// behind when slot reservation fails after the booking row persisted;
// the periodic sweep is the cleanup policy for them.
func (r *BookingRepository) CancelOrphanedPending(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND technician_slot_id IS NULL AND created_at < $3`

	result, err := r.db.Exec(query, models.BookingStatusCancelled, models.BookingStatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel orphaned bookings: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read sweep result: %w", err)
	}

	return rows, nil
}
