package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/evoltcare/service-center-backend/internal/models"
	"github.com/evoltcare/service-center-backend/pkg/validator"
)

// Storage contracts consumed by the booking flow. The sqlx
// repositories in internal/database satisfy these; tests substitute
// in-memory fakes.

type CenterStore interface {
	GetByID(id uuid.UUID) (*models.ServiceCenter, error)
}

type ServiceStore interface {
	GetByID(id uuid.UUID) (*models.Service, error)
}

type CustomerStore interface {
	GetByID(id uuid.UUID) (*models.Customer, error)
	GetByPhone(phone string) (*models.Customer, error)
	GetByEmail(email string) (*models.Customer, error)
	Create(customer *models.Customer) error
}

type VehicleStore interface {
	GetByPlate(plate string) (*models.Vehicle, error)
	GetByVIN(vin string) (*models.Vehicle, error)
	Create(vehicle *models.Vehicle) error
}

type TechnicianStore interface {
	GetByCenterID(centerID uuid.UUID) ([]models.Technician, error)
	GetAll() ([]models.Technician, error)
}

type TechnicianSlotStore interface {
	GetByID(id uuid.UUID) (*models.TechnicianTimeSlot, error)
	Reserve(slotID, bookingID uuid.UUID) error
	ReleaseByBooking(bookingID uuid.UUID) error
}

type BookingStore interface {
	Create(booking *models.Booking) error
	GetByID(id uuid.UUID) (*models.Booking, error)
	GetByCode(code string) (*models.Booking, error)
	GetByOrderCode(orderCode int64) (*models.Booking, error)
	BindSlot(bookingID, technicianSlotID uuid.UUID) error
	UpdateStatus(bookingID uuid.UUID, status models.BookingStatus) error
	CancelOrphanedPending(olderThan time.Duration) (int64, error)
}

// CheckoutProvider issues hosted checkout links. Satisfied by
// *payos.Client.
type CheckoutProvider interface {
	CreatePaymentLink(orderCode int64, amount float64, description string) (string, error)
}

// BookingServiceConfig holds tunables for the booking flow
type BookingServiceConfig struct {
	HoldTTL time.Duration // advisory hold lifetime during checkout
}

// DefaultBookingServiceConfig returns default configuration
func DefaultBookingServiceConfig() BookingServiceConfig {
	return BookingServiceConfig{
		HoldTTL: 5 * time.Minute,
	}
}

// BookingService handles the guest booking flow: validate the request,
// resolve or create the customer and vehicle, persist a PENDING
// booking, take the durable slot reservation, and hand back a checkout
// link.
type BookingService struct {
	centerRepo     CenterStore
	serviceRepo    ServiceStore
	customerRepo   CustomerStore
	vehicleRepo    VehicleStore
	technicianRepo TechnicianStore
	slotRepo       TechnicianSlotStore
	bookingRepo    BookingStore
	holdStore      HoldStore
	checkout       CheckoutProvider
	phoneValidator *validator.PhoneValidator
	config         BookingServiceConfig
	logger         *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	centerRepo CenterStore,
	serviceRepo ServiceStore,
	customerRepo CustomerStore,
	vehicleRepo VehicleStore,
	technicianRepo TechnicianStore,
	slotRepo TechnicianSlotStore,
	bookingRepo BookingStore,
	holdStore HoldStore,
	checkout CheckoutProvider,
	config BookingServiceConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		centerRepo:     centerRepo,
		serviceRepo:    serviceRepo,
		customerRepo:   customerRepo,
		vehicleRepo:    vehicleRepo,
		technicianRepo: technicianRepo,
		slotRepo:       slotRepo,
		bookingRepo:    bookingRepo,
		holdStore:      holdStore,
		checkout:       checkout,
		phoneValidator: validator.NewPhoneValidator(),
		config:         config,
		logger:         logger,
	}
}

// CreateBooking runs the guest booking flow end to end.
//
// Ordering matters: the PENDING booking row is persisted before the
// durable slot reservation, so a reservation lost to a concurrent
// booking leaves an orphaned PENDING row with no slot binding. Those
// rows are swept by the maintenance job rather than deleted inline;
// losing a race must never delete customer data.
func (s *BookingService) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	// 1. Structural validation
	if err := req.Validate(); err != nil {
		return nil, err
	}

	phone, err := s.phoneValidator.Validate(req.CustomerPhone)
	if err != nil {
		return nil, models.NewValidationError("customer_phone", err.Error())
	}

	centerID, _ := uuid.Parse(req.CenterID)
	serviceID, _ := uuid.Parse(req.ServiceID)
	slotID, _ := uuid.Parse(req.TechnicianSlotID)

	// 2. Referenced entities must exist and be active
	center, err := s.centerRepo.GetByID(centerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load service center: %w", err)
	}
	if center == nil {
		return nil, models.NewNotFoundError("service center not found")
	}
	if !center.IsActive {
		return nil, models.NewValidationError("center_id", "service center is not accepting bookings")
	}

	service, err := s.serviceRepo.GetByID(serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load service: %w", err)
	}
	if service == nil {
		return nil, models.NewNotFoundError("service not found")
	}
	if !service.IsActive {
		return nil, models.NewValidationError("service_id", "service is not currently offered")
	}

	// 3. The slot must exist, be free, belong to this center, and not
	// be in the past
	slot, err := s.slotRepo.GetByID(slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to load technician time slot: %w", err)
	}
	if slot == nil {
		return nil, models.NewNotFoundError("technician time slot not found")
	}
	if !slot.IsAvailable || slot.BookingID != nil {
		return nil, models.ErrSlotTaken
	}
	if slot.WorkDate.Before(time.Now().Truncate(24 * time.Hour)) {
		return nil, models.NewValidationError("technician_slot_id", "cannot book a slot in the past")
	}

	if err := s.verifySlotBelongsToCenter(slot, centerID); err != nil {
		return nil, err
	}

	// 4. Resolve or create the customer
	customer, err := s.resolveCustomer(req, phone)
	if err != nil {
		return nil, err
	}

	// 5. Resolve or create the vehicle
	vehicle, err := s.resolveVehicle(req, customer.ID)
	if err != nil {
		return nil, err
	}

	// 6. Advisory hold before touching durable state. A refused hold
	// means someone else is mid-checkout on this slot.
	holdKey := models.SlotHoldKey{
		CenterID:     centerID,
		WorkDate:     slot.WorkDateString(),
		SlotID:       slot.SlotID,
		TechnicianID: slot.TechnicianID,
	}
	granted, _, err := s.holdStore.TryHold(ctx, holdKey, customer.ID, s.config.HoldTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire slot hold: %w", err)
	}
	if !granted {
		return nil, models.ErrSlotTaken
	}
	defer func() {
		// Checkout is finished one way or the other once this call
		// returns, so the advisory window closes here.
		if _, err := s.holdStore.Release(ctx, holdKey, customer.ID); err != nil {
			s.logger.WithError(err).Warn("Failed to release slot hold")
		}
	}()

	// 7. Persist the PENDING booking
	booking := &models.Booking{
		CustomerID:    customer.ID,
		VehicleID:     vehicle.ID,
		CenterID:      centerID,
		ServiceID:     serviceID,
		Status:        models.BookingStatusPending,
		EstimatedCost: service.BasePrice,
	}
	if err := s.bookingRepo.Create(booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	// 8. Durable slot reservation. The orphaned PENDING row left by a
	// lost race is the sweep's problem, not this request's.
	if err := s.slotRepo.Reserve(slot.ID, booking.ID); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.BindSlot(booking.ID, slot.ID); err != nil {
		return nil, fmt.Errorf("failed to bind slot to booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"booking_code": booking.BookingCode,
		"center_id":    centerID,
		"slot_id":      slot.ID,
	}).Info("Booking created")

	// 9. Checkout link. The booking survives a provider outage; the
	// customer can retry the payment link later.
	checkoutURL, err := s.checkout.CreatePaymentLink(booking.OrderCode, booking.EstimatedCost, "Booking "+booking.BookingCode)
	if err != nil {
		return nil, models.NewDependencyError("payment provider unavailable", err)
	}

	return &models.CreateBookingResponse{
		BookingID:   booking.ID,
		BookingCode: booking.BookingCode,
		OrderCode:   booking.OrderCode,
		CheckoutURL: checkoutURL,
	}, nil
}

// GetBooking returns a booking by ID
func (s *BookingService) GetBooking(id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking not found")
	}
	return booking, nil
}

// GetBookingByCode returns a booking by its public booking code
func (s *BookingService) GetBookingByCode(code string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByCode(code)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking not found")
	}
	return booking, nil
}

// verifySlotBelongsToCenter checks the slot's technician against the
// requested center's roster
func (s *BookingService) verifySlotBelongsToCenter(slot *models.TechnicianTimeSlot, centerID uuid.UUID) error {
	technicians, err := s.technicianRepo.GetByCenterID(centerID)
	if err != nil {
		return fmt.Errorf("failed to load center technicians: %w", err)
	}
	for _, tech := range technicians {
		if tech.ID == slot.TechnicianID {
			return nil
		}
	}
	return models.NewValidationError("technician_slot_id", "slot does not belong to the requested center")
}

// resolveCustomer finds the customer by normalized phone, then by
// email, and creates a guest customer when neither matches
func (s *BookingService) resolveCustomer(req *models.CreateBookingRequest, phone string) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByPhone(phone)
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer by phone: %w", err)
	}
	if customer != nil {
		return customer, nil
	}

	if req.CustomerEmail != nil && *req.CustomerEmail != "" {
		customer, err = s.customerRepo.GetByEmail(*req.CustomerEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to look up customer by email: %w", err)
		}
		if customer != nil {
			return customer, nil
		}
	}

	customer = &models.Customer{
		FullName: req.CustomerName,
		Phone:    phone,
		Email:    req.CustomerEmail,
		Address:  req.CustomerAddress,
	}
	if err := s.customerRepo.Create(customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.WithField("customer_id", customer.ID).Info("Guest customer created")
	return customer, nil
}

// resolveVehicle finds the vehicle by license plate, then by VIN, and
// registers it under the customer when neither matches
func (s *BookingService) resolveVehicle(req *models.CreateBookingRequest, customerID uuid.UUID) (*models.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByPlate(req.Vehicle.LicensePlate)
	if err != nil {
		return nil, fmt.Errorf("failed to look up vehicle by plate: %w", err)
	}
	if vehicle != nil {
		return vehicle, nil
	}

	if req.Vehicle.VIN != nil && *req.Vehicle.VIN != "" {
		vehicle, err = s.vehicleRepo.GetByVIN(*req.Vehicle.VIN)
		if err != nil {
			return nil, fmt.Errorf("failed to look up vehicle by VIN: %w", err)
		}
		if vehicle != nil {
			return vehicle, nil
		}
	}

	vehicle = &models.Vehicle{
		CustomerID:   customerID,
		LicensePlate: req.Vehicle.LicensePlate,
		VIN:          req.Vehicle.VIN,
		Model:        req.Vehicle.Model,
	}
	if err := s.vehicleRepo.Create(vehicle); err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	return vehicle, nil
}
