package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// PaymentAuditRepository handles payment audit operations
type PaymentAuditRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new PaymentAuditRepository
func NewPaymentAuditRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Log creates a new payment audit entry
// This should NEVER fail silently - payment events must be logged
func (r *PaymentAuditRepository) Log(audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}

	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (
			id, booking_id, order_code, event_type, provider_status,
			amount, error_message, raw_payload,
			ip_address, user_agent, device_info, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)`

	_, err := r.db.Exec(query,
		audit.ID, audit.BookingID, audit.OrderCode, audit.EventType, audit.ProviderStatus,
		audit.Amount, audit.ErrorMessage, audit.RawPayload,
		audit.IPAddress, audit.UserAgent, audit.DeviceInfo, audit.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": audit.EventType,
			"order_code": audit.OrderCode,
		}).Error("Failed to log payment audit")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":   audit.ID,
		"event_type": audit.EventType,
		"order_code": audit.OrderCode,
	}).Debug("Payment audit logged")

	return nil
}

// GetByOrderCode retrieves audit entries for a provider order code,
// newest first
func (r *PaymentAuditRepository) GetByOrderCode(orderCode int64) ([]models.PaymentAudit, error) {
	var audits []models.PaymentAudit

	query := `
		SELECT id, booking_id, order_code, event_type, provider_status,
		       amount, error_message, raw_payload,
		       ip_address, user_agent, device_info, created_at
		FROM payment_audits
		WHERE order_code = $1
		ORDER BY created_at DESC`

	if err := r.db.Select(&audits, query, orderCode); err != nil {
		return nil, fmt.Errorf("failed to get payment audits: %w", err)
	}

	return audits, nil
}
