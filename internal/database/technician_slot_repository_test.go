package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoltcare/service-center-backend/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestTechnicianSlotGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTechnicianSlotRepository(db)

	t.Run("Success", func(t *testing.T) {
		slotID := uuid.New()
		technicianID := uuid.New()
		timeSlotID := uuid.New()
		workDate := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM technician_time_slots WHERE id`).
			WithArgs(slotID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "technician_id", "slot_id", "work_date", "is_available", "booking_id", "created_at", "updated_at",
			}).AddRow(slotID, technicianID, timeSlotID, workDate, true, nil, now, now))

		slot, err := repo.GetByID(slotID)
		require.NoError(t, err)
		require.NotNil(t, slot)
		assert.Equal(t, slotID, slot.ID)
		assert.Equal(t, technicianID, slot.TechnicianID)
		assert.True(t, slot.IsAvailable)
		assert.Nil(t, slot.BookingID)
		assert.Equal(t, "2026-09-15", slot.WorkDateString())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		slotID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM technician_time_slots WHERE id`).
			WithArgs(slotID).
			WillReturnError(sql.ErrNoRows)

		slot, err := repo.GetByID(slotID)
		require.NoError(t, err)
		assert.Nil(t, slot)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		slotID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM technician_time_slots WHERE id`).
			WithArgs(slotID).
			WillReturnError(fmt.Errorf("database error"))

		slot, err := repo.GetByID(slotID)
		assert.Error(t, err)
		assert.Nil(t, slot)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTechnicianSlotReserve(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTechnicianSlotRepository(db)

	t.Run("Success", func(t *testing.T) {
		slotID := uuid.New()
		bookingID := uuid.New()

		mock.ExpectExec(`UPDATE technician_time_slots`).
			WithArgs(slotID, bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Reserve(slotID, bookingID)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Slot Already Taken - Guard Miss", func(t *testing.T) {
		slotID := uuid.New()
		bookingID := uuid.New()

		// Another booking won the race, the guarded UPDATE matched no rows
		mock.ExpectExec(`UPDATE technician_time_slots`).
			WithArgs(slotID, bookingID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Reserve(slotID, bookingID)
		assert.ErrorIs(t, err, models.ErrSlotTaken)
		assert.True(t, models.IsKind(err, models.ErrorKindConflict))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Slot Already Taken - Unique Violation", func(t *testing.T) {
		slotID := uuid.New()
		bookingID := uuid.New()

		mock.ExpectExec(`UPDATE technician_time_slots`).
			WithArgs(slotID, bookingID).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "technician_time_slots_technician_id_slot_id_work_date_key"})

		err := repo.Reserve(slotID, bookingID)
		assert.ErrorIs(t, err, models.ErrSlotTaken)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		slotID := uuid.New()
		bookingID := uuid.New()

		mock.ExpectExec(`UPDATE technician_time_slots`).
			WithArgs(slotID, bookingID).
			WillReturnError(fmt.Errorf("connection reset"))

		err := repo.Reserve(slotID, bookingID)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrSlotTaken)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTechnicianSlotReleaseByBooking(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTechnicianSlotRepository(db)

	t.Run("Success", func(t *testing.T) {
		bookingID := uuid.New()

		mock.ExpectExec(`UPDATE technician_time_slots`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ReleaseByBooking(bookingID)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		bookingID := uuid.New()

		mock.ExpectExec(`UPDATE technician_time_slots`).
			WithArgs(bookingID).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.ReleaseByBooking(bookingID)
		assert.Error(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
