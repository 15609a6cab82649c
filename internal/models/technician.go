package models

import (
	"time"

	"github.com/google/uuid"
)

// Technician represents a service technician assigned to a center
type Technician struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CenterID  uuid.UUID `json:"center_id" db:"center_id"`
	FullName  string    `json:"full_name" db:"full_name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Slot is a time-of-day template shared across technicians,
// e.g. "09:00" - "10:00"
type Slot struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StartTime string    `json:"start_time" db:"start_time"` // TIME as "09:00"
	EndTime   string    `json:"end_time" db:"end_time"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TechnicianTimeSlot binds one technician to one slot template on one
// calendar date. The UNIQUE (technician_id, slot_id, work_date) index
// on this table is the authoritative guard against double booking:
// at most one non-cancelled booking may bind a given tuple.
type TechnicianTimeSlot struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TechnicianID uuid.UUID  `json:"technician_id" db:"technician_id"`
	SlotID       uuid.UUID  `json:"slot_id" db:"slot_id"`
	WorkDate     time.Time  `json:"work_date" db:"work_date"`
	IsAvailable  bool       `json:"is_available" db:"is_available"`
	BookingID    *uuid.UUID `json:"booking_id,omitempty" db:"booking_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// WorkDateString returns the slot's date in YYYY-MM-DD form,
// the format used by hold keys and API payloads.
func (t *TechnicianTimeSlot) WorkDateString() string {
	return t.WorkDate.Format("2006-01-02")
}
