package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// Hand-rolled fakes for the storage contracts. Function fields let
// each test override exactly the calls it cares about.

type fakeCenterStore struct {
	getByID func(id uuid.UUID) (*models.ServiceCenter, error)
}

func (f *fakeCenterStore) GetByID(id uuid.UUID) (*models.ServiceCenter, error) {
	return f.getByID(id)
}

type fakeServiceStore struct {
	getByID func(id uuid.UUID) (*models.Service, error)
}

func (f *fakeServiceStore) GetByID(id uuid.UUID) (*models.Service, error) {
	return f.getByID(id)
}

type fakeCustomerStore struct {
	getByID    func(id uuid.UUID) (*models.Customer, error)
	getByPhone func(phone string) (*models.Customer, error)
	getByEmail func(email string) (*models.Customer, error)
	create     func(customer *models.Customer) error
}

func (f *fakeCustomerStore) GetByID(id uuid.UUID) (*models.Customer, error) {
	return f.getByID(id)
}

func (f *fakeCustomerStore) GetByPhone(phone string) (*models.Customer, error) {
	return f.getByPhone(phone)
}

func (f *fakeCustomerStore) GetByEmail(email string) (*models.Customer, error) {
	return f.getByEmail(email)
}

func (f *fakeCustomerStore) Create(customer *models.Customer) error {
	return f.create(customer)
}

type fakeVehicleStore struct {
	getByPlate func(plate string) (*models.Vehicle, error)
	getByVIN   func(vin string) (*models.Vehicle, error)
	create     func(vehicle *models.Vehicle) error
}

func (f *fakeVehicleStore) GetByPlate(plate string) (*models.Vehicle, error) {
	return f.getByPlate(plate)
}

func (f *fakeVehicleStore) GetByVIN(vin string) (*models.Vehicle, error) {
	return f.getByVIN(vin)
}

func (f *fakeVehicleStore) Create(vehicle *models.Vehicle) error {
	return f.create(vehicle)
}

type fakeTechnicianStore struct {
	getByCenterID func(centerID uuid.UUID) ([]models.Technician, error)
	getAll        func() ([]models.Technician, error)
}

func (f *fakeTechnicianStore) GetByCenterID(centerID uuid.UUID) ([]models.Technician, error) {
	return f.getByCenterID(centerID)
}

func (f *fakeTechnicianStore) GetAll() ([]models.Technician, error) {
	return f.getAll()
}

type fakeTechnicianSlotStore struct {
	getByID          func(id uuid.UUID) (*models.TechnicianTimeSlot, error)
	reserve          func(slotID, bookingID uuid.UUID) error
	releaseByBooking func(bookingID uuid.UUID) error
}

func (f *fakeTechnicianSlotStore) GetByID(id uuid.UUID) (*models.TechnicianTimeSlot, error) {
	return f.getByID(id)
}

func (f *fakeTechnicianSlotStore) Reserve(slotID, bookingID uuid.UUID) error {
	return f.reserve(slotID, bookingID)
}

func (f *fakeTechnicianSlotStore) ReleaseByBooking(bookingID uuid.UUID) error {
	return f.releaseByBooking(bookingID)
}

type fakeBookingStore struct {
	create                func(booking *models.Booking) error
	getByID               func(id uuid.UUID) (*models.Booking, error)
	getByCode             func(code string) (*models.Booking, error)
	getByOrderCode        func(orderCode int64) (*models.Booking, error)
	bindSlot              func(bookingID, technicianSlotID uuid.UUID) error
	updateStatus          func(bookingID uuid.UUID, status models.BookingStatus) error
	cancelOrphanedPending func(olderThan time.Duration) (int64, error)
}

func (f *fakeBookingStore) Create(booking *models.Booking) error {
	return f.create(booking)
}

func (f *fakeBookingStore) GetByID(id uuid.UUID) (*models.Booking, error) {
	return f.getByID(id)
}

func (f *fakeBookingStore) GetByCode(code string) (*models.Booking, error) {
	return f.getByCode(code)
}

func (f *fakeBookingStore) GetByOrderCode(orderCode int64) (*models.Booking, error) {
	return f.getByOrderCode(orderCode)
}

func (f *fakeBookingStore) BindSlot(bookingID, technicianSlotID uuid.UUID) error {
	return f.bindSlot(bookingID, technicianSlotID)
}

func (f *fakeBookingStore) UpdateStatus(bookingID uuid.UUID, status models.BookingStatus) error {
	return f.updateStatus(bookingID, status)
}

func (f *fakeBookingStore) CancelOrphanedPending(olderThan time.Duration) (int64, error) {
	return f.cancelOrphanedPending(olderThan)
}

type fakeWorkOrderStore struct {
	getByBookingID func(bookingID uuid.UUID) (*models.WorkOrder, error)
	create         func(workOrder *models.WorkOrder) error
}

func (f *fakeWorkOrderStore) GetByBookingID(bookingID uuid.UUID) (*models.WorkOrder, error) {
	return f.getByBookingID(bookingID)
}

func (f *fakeWorkOrderStore) Create(workOrder *models.WorkOrder) error {
	return f.create(workOrder)
}

type fakeInvoiceStore struct {
	getByBookingID func(bookingID uuid.UUID) (*models.Invoice, error)
	create         func(invoice *models.Invoice) error
}

func (f *fakeInvoiceStore) GetByBookingID(bookingID uuid.UUID) (*models.Invoice, error) {
	return f.getByBookingID(bookingID)
}

func (f *fakeInvoiceStore) Create(invoice *models.Invoice) error {
	return f.create(invoice)
}

type fakePaymentStore struct {
	getByOrderCode func(orderCode int64) (*models.Payment, error)
	create         func(payment *models.Payment) error
	markPaid       func(orderCode int64, paidAt time.Time) error
}

func (f *fakePaymentStore) GetByOrderCode(orderCode int64) (*models.Payment, error) {
	return f.getByOrderCode(orderCode)
}

func (f *fakePaymentStore) Create(payment *models.Payment) error {
	return f.create(payment)
}

func (f *fakePaymentStore) MarkPaid(orderCode int64, paidAt time.Time) error {
	return f.markPaid(orderCode, paidAt)
}

type fakeGateway struct {
	createPaymentLink func(orderCode int64, amount float64, description string) (string, error)
	getPaymentStatus  func(orderCode int64) (string, error)
}

func (f *fakeGateway) CreatePaymentLink(orderCode int64, amount float64, description string) (string, error) {
	return f.createPaymentLink(orderCode, amount, description)
}

func (f *fakeGateway) GetPaymentStatus(orderCode int64) (string, error) {
	return f.getPaymentStatus(orderCode)
}
