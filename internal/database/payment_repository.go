package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GeneratePaymentCode generates a unique payment code
// Format: PAY-YYYYMMDDHHMMSS-XXXXXX
func (r *PaymentRepository) GeneratePaymentCode() (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		randomBytes := make([]byte, 3)
		if _, err := rand.Read(randomBytes); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		randomStr := strings.ToUpper(hex.EncodeToString(randomBytes))

		code := fmt.Sprintf("PAY-%s-%s", time.Now().Format("20060102150405"), randomStr)

		var count int
		err := r.db.Get(&count, `SELECT COUNT(*) FROM payments WHERE payment_code = $1`, code)
		if err != nil {
			return "", fmt.Errorf("failed to check payment code uniqueness: %w", err)
		}

		if count == 0 {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique payment code after 10 attempts")
}

// GetByOrderCode retrieves a payment by provider order code. Returns
// (nil, nil) when absent; this is the idempotence lookup used during
// payment confirmation.
func (r *PaymentRepository) GetByOrderCode(orderCode int64) (*models.Payment, error) {
	var payment models.Payment

	query := `
		SELECT id, payment_code, invoice_id, order_code, amount, status, paid_at, created_at, updated_at
		FROM payments
		WHERE order_code = $1`

	err := r.db.Get(&payment, query, orderCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by order code: %w", err)
	}

	return &payment, nil
}

// Create inserts a new payment. The UNIQUE (order_code) index enforces
// at most one payment per provider order code.
func (r *PaymentRepository) Create(payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.PaymentCode == "" {
		code, err := r.GeneratePaymentCode()
		if err != nil {
			return err
		}
		payment.PaymentCode = code
	}
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt

	query := `
		INSERT INTO payments (id, payment_code, invoice_id, order_code, amount, status, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		payment.ID, payment.PaymentCode, payment.InvoiceID, payment.OrderCode,
		payment.Amount, payment.Status, payment.PaidAt,
		payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// MarkPaid sets a payment's status to paid and refreshes its paid-at
// timestamp. Covers redelivery of the same confirmation event.
func (r *PaymentRepository) MarkPaid(orderCode int64, paidAt time.Time) error {
	query := `
		UPDATE payments
		SET status = $2, paid_at = $3, updated_at = NOW()
		WHERE order_code = $1`

	if _, err := r.db.Exec(query, orderCode, models.PaymentStatusPaid, paidAt); err != nil {
		return fmt.Errorf("failed to mark payment paid: %w", err)
	}

	return nil
}
