package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer represents a booking customer. Guest customers are created
// on the fly during booking and identified by normalized phone/email.
type Customer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Phone     string    `json:"phone" db:"phone"` // normalized, leading "0"
	Email     *string   `json:"email,omitempty" db:"email"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Vehicle represents a customer's EV. Matched first by license plate,
// then by VIN, when a guest books again.
type Vehicle struct {
	ID           uuid.UUID `json:"id" db:"id"`
	CustomerID   uuid.UUID `json:"customer_id" db:"customer_id"`
	LicensePlate string    `json:"license_plate" db:"license_plate"`
	VIN          *string   `json:"vin,omitempty" db:"vin"`
	Model        string    `json:"model" db:"model"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
