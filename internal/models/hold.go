package models

import (
	"time"

	"github.com/google/uuid"
)

// SlotHoldKey identifies the resource a hold protects. It is a
// structured tuple rather than a formatted string so keys can never
// collide on delimiters.
type SlotHoldKey struct {
	CenterID     uuid.UUID `json:"center_id"`
	WorkDate     string    `json:"work_date"` // YYYY-MM-DD
	SlotID       uuid.UUID `json:"slot_id"`
	TechnicianID uuid.UUID `json:"technician_id"`
}

// SlotHold is an advisory, TTL-bounded reservation taken before the
// durable slot binding is attempted. Holds have no durability: a
// process restart drops them, and the storage-layer uniqueness
// constraint on technician time slots remains the authoritative guard.
type SlotHold struct {
	Key       SlotHoldKey `json:"key"`
	HolderID  uuid.UUID   `json:"holder_id"` // customer holding the slot
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the hold has passed its TTL at the given instant
func (h *SlotHold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// HoldSlotRequest is the payload for taking or releasing an advisory hold
type HoldSlotRequest struct {
	CenterID     string `json:"center_id" binding:"required"`
	WorkDate     string `json:"work_date" binding:"required"` // YYYY-MM-DD
	SlotID       string `json:"slot_id" binding:"required"`
	TechnicianID string `json:"technician_id" binding:"required"`
	HolderID     string `json:"holder_id" binding:"required"`
}

// Key parses the request into a structured hold key
func (r *HoldSlotRequest) HoldKey() (SlotHoldKey, uuid.UUID, error) {
	centerID, err := uuid.Parse(r.CenterID)
	if err != nil {
		return SlotHoldKey{}, uuid.Nil, NewValidationError("center_id", "center_id must be a valid UUID")
	}
	slotID, err := uuid.Parse(r.SlotID)
	if err != nil {
		return SlotHoldKey{}, uuid.Nil, NewValidationError("slot_id", "slot_id must be a valid UUID")
	}
	technicianID, err := uuid.Parse(r.TechnicianID)
	if err != nil {
		return SlotHoldKey{}, uuid.Nil, NewValidationError("technician_id", "technician_id must be a valid UUID")
	}
	holderID, err := uuid.Parse(r.HolderID)
	if err != nil {
		return SlotHoldKey{}, uuid.Nil, NewValidationError("holder_id", "holder_id must be a valid UUID")
	}
	if _, err := time.Parse("2006-01-02", r.WorkDate); err != nil {
		return SlotHoldKey{}, uuid.Nil, NewValidationError("work_date", "work_date must be in YYYY-MM-DD format")
	}
	key := SlotHoldKey{
		CenterID:     centerID,
		WorkDate:     r.WorkDate,
		SlotID:       slotID,
		TechnicianID: technicianID,
	}
	return key, holderID, nil
}

// HoldSlotResponse reports the outcome of a hold attempt
type HoldSlotResponse struct {
	Granted   bool       `json:"granted"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
