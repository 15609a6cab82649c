package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/evoltcare/service-center-backend/internal/models"
	"github.com/evoltcare/service-center-backend/pkg/payos"
)

type WorkOrderStore interface {
	GetByBookingID(bookingID uuid.UUID) (*models.WorkOrder, error)
	Create(workOrder *models.WorkOrder) error
}

type InvoiceStore interface {
	GetByBookingID(bookingID uuid.UUID) (*models.Invoice, error)
	Create(invoice *models.Invoice) error
}

type PaymentStore interface {
	GetByOrderCode(orderCode int64) (*models.Payment, error)
	Create(payment *models.Payment) error
	MarkPaid(orderCode int64, paidAt time.Time) error
}

// PaymentGateway is the provider surface the confirmation flow needs.
// Satisfied by *payos.Client.
type PaymentGateway interface {
	CreatePaymentLink(orderCode int64, amount float64, description string) (string, error)
	GetPaymentStatus(orderCode int64) (string, error)
}

// PaymentService reconciles external payment outcomes into durable
// booking state: work orders, invoices, and payment records.
type PaymentService struct {
	bookingRepo    BookingStore
	customerRepo   CustomerStore
	technicianRepo TechnicianStore
	slotRepo       TechnicianSlotStore
	workOrderRepo  WorkOrderStore
	invoiceRepo    InvoiceStore
	paymentRepo    PaymentStore
	gateway        PaymentGateway
	logger         *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	bookingRepo BookingStore,
	customerRepo CustomerStore,
	technicianRepo TechnicianStore,
	slotRepo TechnicianSlotStore,
	workOrderRepo WorkOrderStore,
	invoiceRepo InvoiceStore,
	paymentRepo PaymentStore,
	gateway PaymentGateway,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		bookingRepo:    bookingRepo,
		customerRepo:   customerRepo,
		technicianRepo: technicianRepo,
		slotRepo:       slotRepo,
		workOrderRepo:  workOrderRepo,
		invoiceRepo:    invoiceRepo,
		paymentRepo:    paymentRepo,
		gateway:        gateway,
		logger:         logger,
	}
}

// CreatePaymentLink issues a fresh checkout link for an existing
// booking, used when the customer abandoned the original checkout
func (s *PaymentService) CreatePaymentLink(bookingID uuid.UUID) (string, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return "", fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return "", models.NewNotFoundError("booking not found")
	}
	if booking.Status == models.BookingStatusCancelled {
		return "", models.NewConflictError("booking is cancelled")
	}
	if booking.Status == models.BookingStatusConfirmed {
		return "", models.NewConflictError("booking is already paid")
	}

	checkoutURL, err := s.gateway.CreatePaymentLink(booking.OrderCode, booking.EstimatedCost, "Booking "+booking.BookingCode)
	if err != nil {
		return "", models.NewDependencyError("payment provider unavailable", err)
	}

	return checkoutURL, nil
}

// ConfirmPayment polls the provider for the order's status and, on a
// terminal success, materializes the downstream records. Returns
// whether the booking is confirmed after reconciliation.
//
// The call is idempotent: each ensure step looks up its record before
// creating it, and the booking status flip persists last. A crash
// mid-way leaves the booking PENDING with some records already
// present; the next confirmation attempt picks up where it left off.
func (s *PaymentService) ConfirmPayment(orderCode string) (bool, error) {
	booking, err := s.resolveBooking(orderCode)
	if err != nil {
		return false, err
	}
	if booking == nil {
		// The provider can notify before the booking row lands, so an
		// unknown code is not an error. The caller polls again.
		s.logger.WithField("order_code", orderCode).Debug("No booking for order code")
		return false, nil
	}

	if booking.Status == models.BookingStatusConfirmed {
		return true, nil
	}
	if booking.Status == models.BookingStatusCancelled {
		return false, models.NewConflictError("booking is cancelled")
	}

	status, err := s.gateway.GetPaymentStatus(booking.OrderCode)
	if err != nil {
		return false, models.NewDependencyError("failed to query payment status", err)
	}

	logger := s.logger.WithFields(logrus.Fields{
		"booking_id":      booking.ID,
		"order_code":      booking.OrderCode,
		"provider_status": status,
	})

	switch {
	case payos.IsTerminalSuccess(status):
		if err := s.materializeConfirmation(booking); err != nil {
			return false, err
		}
		logger.Info("Payment confirmed")
		return true, nil

	case payos.IsTerminalFailure(status):
		if err := s.cancelBooking(booking); err != nil {
			return false, err
		}
		logger.Info("Payment failed, booking cancelled")
		return false, nil

	default:
		// Non-terminal. Nothing changes; the caller may poll again.
		logger.Debug("Payment not yet terminal")
		return false, nil
	}
}

// resolveBooking maps a provider order code to its booking. Numeric
// codes are provider order codes; anything else is tried as a booking
// code for callers that only kept the public reference. Returns
// (nil, nil) when no booking carries the code.
func (s *PaymentService) resolveBooking(orderCode string) (*models.Booking, error) {
	var booking *models.Booking
	var err error

	if code, parseErr := strconv.ParseInt(orderCode, 10, 64); parseErr == nil {
		booking, err = s.bookingRepo.GetByOrderCode(code)
	} else {
		booking, err = s.bookingRepo.GetByCode(orderCode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve booking: %w", err)
	}

	return booking, nil
}

// materializeConfirmation creates the work order, invoice, and payment
// for a paid booking, then flips the booking to confirmed. Status
// persists last so a partial failure is retried, never skipped.
func (s *PaymentService) materializeConfirmation(booking *models.Booking) error {
	workOrder, err := s.ensureWorkOrder(booking)
	if err != nil {
		return err
	}

	invoice, err := s.ensureInvoice(booking, workOrder)
	if err != nil {
		return err
	}

	if err := s.ensurePayment(booking, invoice); err != nil {
		return err
	}

	if err := s.bookingRepo.UpdateStatus(booking.ID, models.BookingStatusConfirmed); err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}
	booking.Status = models.BookingStatusConfirmed

	return nil
}

// cancelBooking flips the booking to cancelled and frees its slot
func (s *PaymentService) cancelBooking(booking *models.Booking) error {
	if err := s.bookingRepo.UpdateStatus(booking.ID, models.BookingStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	booking.Status = models.BookingStatusCancelled

	if err := s.slotRepo.ReleaseByBooking(booking.ID); err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}

	return nil
}

// ensureWorkOrder returns the booking's work order, creating it when
// absent. The technician comes from the booking's slot binding;
// bookings that somehow confirmed without one get assigned from the
// center's roster.
func (s *PaymentService) ensureWorkOrder(booking *models.Booking) (*models.WorkOrder, error) {
	existing, err := s.workOrderRepo.GetByBookingID(booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up work order: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	technicianID, err := s.assignTechnician(booking)
	if err != nil {
		return nil, err
	}

	workOrder := &models.WorkOrder{
		BookingID:    booking.ID,
		TechnicianID: technicianID,
		Status:       models.WorkOrderStatusCreated,
	}
	if err := s.workOrderRepo.Create(workOrder); err != nil {
		return nil, fmt.Errorf("failed to create work order: %w", err)
	}

	return workOrder, nil
}

// assignTechnician resolves the technician for a work order
func (s *PaymentService) assignTechnician(booking *models.Booking) (uuid.UUID, error) {
	if booking.TechnicianSlotID != nil {
		slot, err := s.slotRepo.GetByID(*booking.TechnicianSlotID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to load technician time slot: %w", err)
		}
		if slot != nil {
			return slot.TechnicianID, nil
		}
	}

	// No slot binding. Fall back to the center's roster, then the
	// whole chain's.
	technicians, err := s.technicianRepo.GetByCenterID(booking.CenterID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load center technicians: %w", err)
	}
	if len(technicians) == 0 {
		technicians, err = s.technicianRepo.GetAll()
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to load technicians: %w", err)
		}
	}
	if len(technicians) == 0 {
		// A paid booking must produce a work order. Surfacing the
		// error keeps the booking PENDING for a retry after staff
		// fix the roster.
		return uuid.Nil, fmt.Errorf("no technician available for work order on booking %s", booking.ID)
	}

	return technicians[0].ID, nil
}

// ensureInvoice returns the booking's invoice, creating it with a
// billing snapshot of the customer when absent
func (s *PaymentService) ensureInvoice(booking *models.Booking, workOrder *models.WorkOrder) (*models.Invoice, error) {
	existing, err := s.invoiceRepo.GetByBookingID(booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invoice: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	customer, err := s.customerRepo.GetByID(booking.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("customer %s missing for booking %s", booking.CustomerID, booking.ID)
	}

	invoice := &models.Invoice{
		WorkOrderID:     workOrder.ID,
		CustomerID:      customer.ID,
		CustomerName:    customer.FullName,
		CustomerPhone:   customer.Phone,
		CustomerAddress: customer.Address,
		TotalAmount:     booking.EstimatedCost,
		Status:          models.InvoiceStatusPaid,
	}
	if err := s.invoiceRepo.Create(invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	return invoice, nil
}

// ensurePayment records the settled payment, or refreshes an existing
// record when the same confirmation is redelivered
func (s *PaymentService) ensurePayment(booking *models.Booking, invoice *models.Invoice) error {
	paidAt := time.Now()

	existing, err := s.paymentRepo.GetByOrderCode(booking.OrderCode)
	if err != nil {
		return fmt.Errorf("failed to look up payment: %w", err)
	}
	if existing != nil {
		// A redelivered confirmation settles the record again with a
		// fresh paid-at, covering a crash between the provider call
		// and the earlier MarkPaid.
		if err := s.paymentRepo.MarkPaid(booking.OrderCode, paidAt); err != nil {
			return err
		}
		return nil
	}

	payment := &models.Payment{
		InvoiceID: invoice.ID,
		OrderCode: booking.OrderCode,
		Amount:    booking.EstimatedCost,
		Status:    models.PaymentStatusPaid,
		PaidAt:    &paidAt,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}
