package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// InvoiceRepository handles invoice database operations
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// GetByBookingID retrieves the invoice for a booking through its work
// order. Returns (nil, nil) when absent; this is the idempotence
// lookup used during payment confirmation.
func (r *InvoiceRepository) GetByBookingID(bookingID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice

	query := `
		SELECT i.id, i.work_order_id, i.customer_id, i.customer_name, i.customer_phone,
		       i.customer_address, i.total_amount, i.status, i.created_at
		FROM invoices i
		JOIN work_orders w ON w.id = i.work_order_id
		WHERE w.booking_id = $1`

	err := r.db.Get(&invoice, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice by booking: %w", err)
	}

	return &invoice, nil
}

// Create inserts a new invoice. The UNIQUE (work_order_id) index
// enforces at most one invoice per work order, and therefore per booking.
func (r *InvoiceRepository) Create(invoice *models.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	invoice.CreatedAt = time.Now()

	query := `
		INSERT INTO invoices (
			id, work_order_id, customer_id, customer_name, customer_phone,
			customer_address, total_amount, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := r.db.Exec(query,
		invoice.ID, invoice.WorkOrderID, invoice.CustomerID,
		invoice.CustomerName, invoice.CustomerPhone, invoice.CustomerAddress,
		invoice.TotalAmount, invoice.Status, invoice.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}
