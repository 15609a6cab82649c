package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle state of a booking.
// Transitions are monotone forward; cancelled is terminal.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking represents a customer's request for a service at a
// center/technician/slot/date. A booking holds at most one technician
// slot reservation at a time; TechnicianSlotID stays nil until the
// durable reservation succeeds.
type Booking struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	BookingCode      string        `json:"booking_code" db:"booking_code"`
	OrderCode        int64         `json:"order_code" db:"order_code"` // payment provider order code, unique
	CustomerID       uuid.UUID     `json:"customer_id" db:"customer_id"`
	VehicleID        uuid.UUID     `json:"vehicle_id" db:"vehicle_id"`
	CenterID         uuid.UUID     `json:"center_id" db:"center_id"`
	ServiceID        uuid.UUID     `json:"service_id" db:"service_id"`
	TechnicianSlotID *uuid.UUID    `json:"technician_slot_id,omitempty" db:"technician_slot_id"`
	Status           BookingStatus `json:"status" db:"status"`
	EstimatedCost    float64       `json:"estimated_cost" db:"estimated_cost"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// IsTerminal reports whether the booking has left the payment flow
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusConfirmed || b.Status == BookingStatusCancelled
}

// VehicleInfo carries the vehicle part of a guest booking request
type VehicleInfo struct {
	LicensePlate string  `json:"license_plate" binding:"required"`
	VIN          *string `json:"vin,omitempty"`
	Model        string  `json:"model" binding:"required"`
}

// CreateBookingRequest is the guest booking request payload
type CreateBookingRequest struct {
	CenterID         string      `json:"center_id" binding:"required"`
	ServiceID        string      `json:"service_id" binding:"required"`
	TechnicianSlotID string      `json:"technician_slot_id" binding:"required"`
	CustomerName     string      `json:"customer_name" binding:"required"`
	CustomerPhone    string      `json:"customer_phone" binding:"required"`
	CustomerEmail    *string     `json:"customer_email,omitempty"`
	CustomerAddress  *string     `json:"customer_address,omitempty"`
	Vehicle          VehicleInfo `json:"vehicle" binding:"required"`
}

// Validate checks structural validity of the request. Existence and
// availability checks happen in the booking service against storage.
func (r *CreateBookingRequest) Validate() error {
	if _, err := uuid.Parse(r.CenterID); err != nil {
		return NewValidationError("center_id", "center_id must be a valid UUID")
	}
	if _, err := uuid.Parse(r.ServiceID); err != nil {
		return NewValidationError("service_id", "service_id must be a valid UUID")
	}
	if _, err := uuid.Parse(r.TechnicianSlotID); err != nil {
		return NewValidationError("technician_slot_id", "technician_slot_id must be a valid UUID")
	}
	if r.CustomerName == "" {
		return NewValidationError("customer_name", "customer name is required")
	}
	if r.Vehicle.LicensePlate == "" {
		return NewValidationError("vehicle.license_plate", "license plate is required")
	}
	return nil
}

// CreateBookingResponse is returned after a successful guest booking
type CreateBookingResponse struct {
	BookingID   uuid.UUID `json:"booking_id"`
	BookingCode string    `json:"booking_code"`
	OrderCode   int64     `json:"order_code"`
	CheckoutURL string    `json:"checkout_url"`
}

// ConfirmPaymentRequest asks the backend to reconcile a payment
// provider order code against its booking.
type ConfirmPaymentRequest struct {
	OrderCode string `json:"order_code" binding:"required"`
}

// ErrBookingCancelled signals an operation against a booking that has
// already reached its terminal cancelled state.
var ErrBookingCancelled = errors.New("booking is cancelled")
