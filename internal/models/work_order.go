package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkOrderStatus represents the operational state of a work order
type WorkOrderStatus string

const (
	WorkOrderStatusCreated    WorkOrderStatus = "created"
	WorkOrderStatusInProgress WorkOrderStatus = "in_progress"
	WorkOrderStatusCompleted  WorkOrderStatus = "completed"
)

// WorkOrder is the operational record of work performed against a paid
// booking. At most one work order exists per booking; creation during
// payment confirmation is idempotent, keyed by booking id.
type WorkOrder struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	BookingID    uuid.UUID       `json:"booking_id" db:"booking_id"`
	TechnicianID uuid.UUID       `json:"technician_id" db:"technician_id"`
	Status       WorkOrderStatus `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// InvoiceStatus represents the billing state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

// Invoice is created once per booking when payment is confirmed. The
// customer name/phone/address fields are a billing snapshot copied at
// confirmation time, so later customer edits do not rewrite history.
type Invoice struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	WorkOrderID     uuid.UUID     `json:"work_order_id" db:"work_order_id"`
	CustomerID      uuid.UUID     `json:"customer_id" db:"customer_id"`
	CustomerName    string        `json:"customer_name" db:"customer_name"`
	CustomerPhone   string        `json:"customer_phone" db:"customer_phone"`
	CustomerAddress *string       `json:"customer_address,omitempty" db:"customer_address"`
	TotalAmount     float64       `json:"total_amount" db:"total_amount"`
	Status          InvoiceStatus `json:"status" db:"status"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
}

// PaymentStatus represents the settlement state of a payment record
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Payment represents a reconciled external payment. Rows are unique
// per provider order code so redelivered confirmation events update
// the existing row instead of creating duplicates.
type Payment struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	PaymentCode string        `json:"payment_code" db:"payment_code"`
	InvoiceID   uuid.UUID     `json:"invoice_id" db:"invoice_id"`
	OrderCode   int64         `json:"order_code" db:"order_code"`
	Amount      float64       `json:"amount" db:"amount"`
	Status      PaymentStatus `json:"status" db:"status"`
	PaidAt      *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}
