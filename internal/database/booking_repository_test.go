package database

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoltcare/service-center-backend/internal/models"
)

var bookingRows = []string{
	"id", "booking_code", "order_code", "customer_id", "vehicle_id", "center_id", "service_id",
	"technician_slot_id", "status", "estimated_cost", "created_at", "updated_at",
}

func TestGenerateBookingCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE booking_code`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		code, err := repo.GenerateBookingCode()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(code, "EVC-"+time.Now().Format("20060102")+"-"))
		assert.Len(t, code, len("EVC-20060102-")+6)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Retries On Collision", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE booking_code`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE booking_code`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		code, err := repo.GenerateBookingCode()
		require.NoError(t, err)
		assert.NotEmpty(t, code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGenerateOrderCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE order_code`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		orderCode, err := repo.GenerateOrderCode()
		require.NoError(t, err)
		assert.Greater(t, orderCode, int64(0))
		assert.Less(t, orderCode, int64(9_000_000_000_000))

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		booking := &models.Booking{
			BookingCode:   "EVC-20260901-A1B2C3",
			OrderCode:     123456789,
			CustomerID:    uuid.New(),
			VehicleID:     uuid.New(),
			CenterID:      uuid.New(),
			ServiceID:     uuid.New(),
			Status:        models.BookingStatusPending,
			EstimatedCost: 500000,
		}

		mock.ExpectExec(`INSERT INTO bookings`).
			WithArgs(
				sqlmock.AnyArg(), booking.BookingCode, booking.OrderCode,
				booking.CustomerID, booking.VehicleID, booking.CenterID, booking.ServiceID,
				nil, booking.Status, booking.EstimatedCost,
				sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Create(booking)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, booking.ID)
		assert.False(t, booking.CreatedAt.IsZero())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Generates Codes When Unset", func(t *testing.T) {
		booking := &models.Booking{
			CustomerID:    uuid.New(),
			VehicleID:     uuid.New(),
			CenterID:      uuid.New(),
			ServiceID:     uuid.New(),
			Status:        models.BookingStatusPending,
			EstimatedCost: 250000,
		}

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE booking_code`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE order_code`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO bookings`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Create(booking)
		require.NoError(t, err)
		assert.NotEmpty(t, booking.BookingCode)
		assert.NotZero(t, booking.OrderCode)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		booking := &models.Booking{
			BookingCode: "EVC-20260901-FFFFFF",
			OrderCode:   987654321,
			Status:      models.BookingStatusPending,
		}

		mock.ExpectExec(`INSERT INTO bookings`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(booking)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create booking")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingGetByOrderCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		bookingID := uuid.New()
		orderCode := int64(123456789)
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE order_code`).
			WithArgs(orderCode).
			WillReturnRows(sqlmock.NewRows(bookingRows).AddRow(
				bookingID, "EVC-20260901-A1B2C3", orderCode,
				uuid.New(), uuid.New(), uuid.New(), uuid.New(),
				nil, "pending", 500000.0, now, now,
			))

		booking, err := repo.GetByOrderCode(orderCode)
		require.NoError(t, err)
		require.NotNil(t, booking)
		assert.Equal(t, bookingID, booking.ID)
		assert.Equal(t, orderCode, booking.OrderCode)
		assert.Equal(t, models.BookingStatusPending, booking.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE order_code`).
			WithArgs(int64(42)).
			WillReturnError(sql.ErrNoRows)

		booking, err := repo.GetByOrderCode(42)
		require.NoError(t, err)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingGetByCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE booking_code`).
			WithArgs("EVC-20260901-ZZZZZZ").
			WillReturnError(sql.ErrNoRows)

		booking, err := repo.GetByCode("EVC-20260901-ZZZZZZ")
		require.NoError(t, err)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingBindSlot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		bookingID := uuid.New()
		slotID := uuid.New()

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID, slotID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.BindSlot(bookingID, slotID)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Confirm", func(t *testing.T) {
		bookingID := uuid.New()

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID, models.BookingStatusConfirmed).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(bookingID, models.BookingStatusConfirmed)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		bookingID := uuid.New()

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID, models.BookingStatusCancelled).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.UpdateStatus(bookingID, models.BookingStatusCancelled)
		assert.Error(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelOrphanedPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Cancels Stale Bookings", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(models.BookingStatusCancelled, models.BookingStatusPending, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 3))

		count, err := repo.CancelOrphanedPending(10 * time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing To Cancel", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(models.BookingStatusCancelled, models.BookingStatusPending, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		count, err := repo.CancelOrphanedPending(10 * time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
