package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// bookingFixture wires a BookingService over happy-path fakes. Tests
// override individual fake functions to force each failure mode.
type bookingFixture struct {
	centerID     uuid.UUID
	serviceID    uuid.UUID
	slotID       uuid.UUID // technician time slot id
	timeSlotID   uuid.UUID // slot template id
	technicianID uuid.UUID

	centers     *fakeCenterStore
	services    *fakeServiceStore
	customers   *fakeCustomerStore
	vehicles    *fakeVehicleStore
	technicians *fakeTechnicianStore
	slots       *fakeTechnicianSlotStore
	bookings    *fakeBookingStore
	holds       *MemoryHoldStore
	gateway     *fakeGateway

	createdBookings []*models.Booking
	reservedSlots   []uuid.UUID
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		centerID:     uuid.New(),
		serviceID:    uuid.New(),
		slotID:       uuid.New(),
		timeSlotID:   uuid.New(),
		technicianID: uuid.New(),
		holds:        NewMemoryHoldStore(testLogger()),
	}

	f.centers = &fakeCenterStore{
		getByID: func(id uuid.UUID) (*models.ServiceCenter, error) {
			if id != f.centerID {
				return nil, nil
			}
			return &models.ServiceCenter{ID: f.centerID, Name: "District 1 Center", IsActive: true}, nil
		},
	}
	f.services = &fakeServiceStore{
		getByID: func(id uuid.UUID) (*models.Service, error) {
			if id != f.serviceID {
				return nil, nil
			}
			return &models.Service{ID: f.serviceID, Name: "Battery Check", BasePrice: 500000, IsActive: true}, nil
		},
	}
	f.customers = &fakeCustomerStore{
		getByPhone: func(string) (*models.Customer, error) { return nil, nil },
		getByEmail: func(string) (*models.Customer, error) { return nil, nil },
		create: func(customer *models.Customer) error {
			customer.ID = uuid.New()
			return nil
		},
	}
	f.vehicles = &fakeVehicleStore{
		getByPlate: func(string) (*models.Vehicle, error) { return nil, nil },
		getByVIN:   func(string) (*models.Vehicle, error) { return nil, nil },
		create: func(vehicle *models.Vehicle) error {
			vehicle.ID = uuid.New()
			return nil
		},
	}
	f.technicians = &fakeTechnicianStore{
		getByCenterID: func(uuid.UUID) ([]models.Technician, error) {
			return []models.Technician{{ID: f.technicianID, CenterID: f.centerID, IsActive: true}}, nil
		},
		getAll: func() ([]models.Technician, error) { return nil, nil },
	}
	f.slots = &fakeTechnicianSlotStore{
		getByID: func(id uuid.UUID) (*models.TechnicianTimeSlot, error) {
			if id != f.slotID {
				return nil, nil
			}
			return &models.TechnicianTimeSlot{
				ID:           f.slotID,
				TechnicianID: f.technicianID,
				SlotID:       f.timeSlotID,
				WorkDate:     time.Now().AddDate(0, 0, 7),
				IsAvailable:  true,
			}, nil
		},
		reserve: func(slotID, bookingID uuid.UUID) error {
			f.reservedSlots = append(f.reservedSlots, slotID)
			return nil
		},
		releaseByBooking: func(uuid.UUID) error { return nil },
	}
	f.bookings = &fakeBookingStore{
		create: func(booking *models.Booking) error {
			booking.ID = uuid.New()
			booking.BookingCode = "EVC-20260901-A1B2C3"
			booking.OrderCode = 123456789
			f.createdBookings = append(f.createdBookings, booking)
			return nil
		},
		bindSlot: func(uuid.UUID, uuid.UUID) error { return nil },
	}
	f.gateway = &fakeGateway{
		createPaymentLink: func(int64, float64, string) (string, error) {
			return "https://pay.example.com/checkout/abc", nil
		},
	}

	return f
}

func (f *bookingFixture) service() *BookingService {
	return NewBookingService(
		f.centers, f.services, f.customers, f.vehicles, f.technicians,
		f.slots, f.bookings, f.holds, f.gateway,
		DefaultBookingServiceConfig(), testLogger(),
	)
}

func (f *bookingFixture) request() *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		CenterID:         f.centerID.String(),
		ServiceID:        f.serviceID.String(),
		TechnicianSlotID: f.slotID.String(),
		CustomerName:     "Nguyen Van A",
		CustomerPhone:    "84912345678",
		Vehicle: models.VehicleInfo{
			LicensePlate: "51K-123.45",
			Model:        "VF 8",
		},
	}
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newBookingFixture()

		resp, err := f.service().CreateBooking(ctx, f.request())
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "EVC-20260901-A1B2C3", resp.BookingCode)
		assert.Equal(t, int64(123456789), resp.OrderCode)
		assert.Equal(t, "https://pay.example.com/checkout/abc", resp.CheckoutURL)

		require.Len(t, f.createdBookings, 1)
		booking := f.createdBookings[0]
		assert.Equal(t, models.BookingStatusPending, booking.Status)
		assert.Equal(t, 500000.0, booking.EstimatedCost)
		assert.Len(t, f.reservedSlots, 1)
	})

	t.Run("Normalizes Customer Phone", func(t *testing.T) {
		f := newBookingFixture()
		var lookedUp string
		f.customers.getByPhone = func(phone string) (*models.Customer, error) {
			lookedUp = phone
			return nil, nil
		}

		_, err := f.service().CreateBooking(ctx, f.request())
		require.NoError(t, err)
		assert.Equal(t, "0912345678", lookedUp)
	})

	t.Run("Invalid Phone", func(t *testing.T) {
		f := newBookingFixture()
		req := f.request()
		req.CustomerPhone = "12345"

		_, err := f.service().CreateBooking(ctx, req)
		assert.True(t, models.IsKind(err, models.ErrorKindValidation))
	})

	t.Run("Unknown Center", func(t *testing.T) {
		f := newBookingFixture()
		req := f.request()
		req.CenterID = uuid.New().String()

		_, err := f.service().CreateBooking(ctx, req)
		assert.True(t, models.IsKind(err, models.ErrorKindNotFound))
	})

	t.Run("Inactive Service", func(t *testing.T) {
		f := newBookingFixture()
		f.services.getByID = func(id uuid.UUID) (*models.Service, error) {
			return &models.Service{ID: f.serviceID, IsActive: false}, nil
		}

		_, err := f.service().CreateBooking(ctx, f.request())
		assert.True(t, models.IsKind(err, models.ErrorKindValidation))
	})

	t.Run("Slot Already Bound", func(t *testing.T) {
		f := newBookingFixture()
		otherBooking := uuid.New()
		f.slots.getByID = func(id uuid.UUID) (*models.TechnicianTimeSlot, error) {
			return &models.TechnicianTimeSlot{
				ID:           f.slotID,
				TechnicianID: f.technicianID,
				WorkDate:     time.Now().AddDate(0, 0, 7),
				IsAvailable:  false,
				BookingID:    &otherBooking,
			}, nil
		}

		_, err := f.service().CreateBooking(ctx, f.request())
		assert.ErrorIs(t, err, models.ErrSlotTaken)
	})

	t.Run("Slot In The Past", func(t *testing.T) {
		f := newBookingFixture()
		f.slots.getByID = func(id uuid.UUID) (*models.TechnicianTimeSlot, error) {
			return &models.TechnicianTimeSlot{
				ID:           f.slotID,
				TechnicianID: f.technicianID,
				WorkDate:     time.Now().AddDate(0, 0, -1),
				IsAvailable:  true,
			}, nil
		}

		_, err := f.service().CreateBooking(ctx, f.request())
		assert.True(t, models.IsKind(err, models.ErrorKindValidation))
	})

	t.Run("Slot From Another Center", func(t *testing.T) {
		f := newBookingFixture()
		f.technicians.getByCenterID = func(uuid.UUID) ([]models.Technician, error) {
			return []models.Technician{{ID: uuid.New(), CenterID: f.centerID}}, nil
		}

		_, err := f.service().CreateBooking(ctx, f.request())
		assert.True(t, models.IsKind(err, models.ErrorKindValidation))
	})

	t.Run("Reuses Existing Customer And Vehicle", func(t *testing.T) {
		f := newBookingFixture()
		customerID := uuid.New()
		vehicleID := uuid.New()
		f.customers.getByPhone = func(phone string) (*models.Customer, error) {
			return &models.Customer{ID: customerID, Phone: phone}, nil
		}
		f.customers.create = func(*models.Customer) error {
			return fmt.Errorf("unexpected customer create")
		}
		f.vehicles.getByPlate = func(plate string) (*models.Vehicle, error) {
			return &models.Vehicle{ID: vehicleID, CustomerID: customerID, LicensePlate: plate}, nil
		}
		f.vehicles.create = func(*models.Vehicle) error {
			return fmt.Errorf("unexpected vehicle create")
		}

		_, err := f.service().CreateBooking(ctx, f.request())
		require.NoError(t, err)

		require.Len(t, f.createdBookings, 1)
		assert.Equal(t, customerID, f.createdBookings[0].CustomerID)
		assert.Equal(t, vehicleID, f.createdBookings[0].VehicleID)
	})

	t.Run("Hold Already Taken", func(t *testing.T) {
		f := newBookingFixture()

		// Another checkout holds this slot tuple
		slot, err := f.slots.getByID(f.slotID)
		require.NoError(t, err)
		key := models.SlotHoldKey{
			CenterID:     f.centerID,
			WorkDate:     slot.WorkDateString(),
			SlotID:       slot.SlotID,
			TechnicianID: slot.TechnicianID,
		}
		granted, _, err := f.holds.TryHold(ctx, key, uuid.New(), 5*time.Minute)
		require.NoError(t, err)
		require.True(t, granted)

		_, err = f.service().CreateBooking(ctx, f.request())
		assert.ErrorIs(t, err, models.ErrSlotTaken)
		assert.Empty(t, f.createdBookings)
	})

	t.Run("Lost Reservation Race Keeps Orphan And Releases Hold", func(t *testing.T) {
		f := newBookingFixture()
		f.slots.reserve = func(uuid.UUID, uuid.UUID) error {
			return models.ErrSlotTaken
		}

		slot, err := f.slots.getByID(f.slotID)
		require.NoError(t, err)
		key := models.SlotHoldKey{
			CenterID:     f.centerID,
			WorkDate:     slot.WorkDateString(),
			SlotID:       slot.SlotID,
			TechnicianID: slot.TechnicianID,
		}

		_, err = f.service().CreateBooking(ctx, f.request())
		assert.ErrorIs(t, err, models.ErrSlotTaken)

		// The PENDING row stays for the sweep, the advisory hold does not
		require.Len(t, f.createdBookings, 1)
		assert.Nil(t, f.createdBookings[0].TechnicianSlotID)

		held, err := f.holds.IsHeld(ctx, key)
		require.NoError(t, err)
		assert.False(t, held)
	})

	t.Run("Concurrent Requests Get One Winner", func(t *testing.T) {
		f := newBookingFixture()

		// Guard the fakes so both goroutines can share them. The slot
		// store reserves at most once, like the database unique index.
		var mu sync.Mutex
		reserved := false
		f.slots.reserve = func(slotID, bookingID uuid.UUID) error {
			mu.Lock()
			defer mu.Unlock()
			if reserved {
				return models.ErrSlotTaken
			}
			reserved = true
			return nil
		}
		f.bookings.create = func(booking *models.Booking) error {
			mu.Lock()
			defer mu.Unlock()
			booking.ID = uuid.New()
			booking.BookingCode = fmt.Sprintf("EVC-20260901-%06d", len(f.createdBookings)+1)
			booking.OrderCode = int64(len(f.createdBookings) + 1)
			f.createdBookings = append(f.createdBookings, booking)
			return nil
		}

		svc := f.service()
		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			go func() {
				_, err := svc.CreateBooking(ctx, f.request())
				results <- err
			}()
		}

		var successes, conflicts int
		for i := 0; i < 2; i++ {
			err := <-results
			switch {
			case err == nil:
				successes++
			case errors.Is(err, models.ErrSlotTaken):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}

		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, conflicts)
	})

	t.Run("Provider Outage Keeps Booking", func(t *testing.T) {
		f := newBookingFixture()
		f.gateway.createPaymentLink = func(int64, float64, string) (string, error) {
			return "", fmt.Errorf("gateway timeout")
		}

		_, err := f.service().CreateBooking(ctx, f.request())
		assert.True(t, models.IsKind(err, models.ErrorKindDependency))
		assert.Len(t, f.createdBookings, 1)
		assert.Len(t, f.reservedSlots, 1)
	})
}

func TestGetBooking(t *testing.T) {
	t.Run("Not Found", func(t *testing.T) {
		f := newBookingFixture()
		f.bookings.getByID = func(uuid.UUID) (*models.Booking, error) { return nil, nil }

		_, err := f.service().GetBooking(uuid.New())
		assert.True(t, models.IsKind(err, models.ErrorKindNotFound))
	})

	t.Run("Success", func(t *testing.T) {
		f := newBookingFixture()
		bookingID := uuid.New()
		f.bookings.getByID = func(id uuid.UUID) (*models.Booking, error) {
			return &models.Booking{ID: id, Status: models.BookingStatusPending}, nil
		}

		booking, err := f.service().GetBooking(bookingID)
		require.NoError(t, err)
		assert.Equal(t, bookingID, booking.ID)
	})
}
