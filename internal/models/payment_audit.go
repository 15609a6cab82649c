package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEventType classifies payment audit entries
type PaymentEventType string

const (
	PaymentEventCheckoutCreated  PaymentEventType = "checkout_created"
	PaymentEventWebhookReceived  PaymentEventType = "webhook_received"
	PaymentEventStatusPolled     PaymentEventType = "status_polled"
	PaymentEventBookingConfirmed PaymentEventType = "booking_confirmed"
	PaymentEventBookingCancelled PaymentEventType = "booking_cancelled"
	PaymentEventError            PaymentEventType = "error"
)

// PaymentAudit is an append-only record of every payment-related event
// touching a booking: checkout creation, webhook deliveries, status
// polls and reconciliation outcomes. Audit rows are never updated.
type PaymentAudit struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	BookingID      *uuid.UUID       `json:"booking_id,omitempty" db:"booking_id"`
	OrderCode      *int64           `json:"order_code,omitempty" db:"order_code"`
	EventType      PaymentEventType `json:"event_type" db:"event_type"`
	ProviderStatus *string          `json:"provider_status,omitempty" db:"provider_status"`
	Amount         *float64         `json:"amount,omitempty" db:"amount"`
	ErrorMessage   *string          `json:"error_message,omitempty" db:"error_message"`
	RawPayload     *string          `json:"raw_payload,omitempty" db:"raw_payload"`
	IPAddress      *string          `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent      *string          `json:"user_agent,omitempty" db:"user_agent"`
	DeviceInfo     *string          `json:"device_info,omitempty" db:"device_info"` // parsed browser/OS summary
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}
