package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// HoldStore is the advisory slot-hold contract. Holds are atomic
// test-and-set reservations bounded by a TTL; they reduce payment-abort
// churn during checkout but carry no durability guarantee. The database
// uniqueness constraint on technician time slots is the authoritative
// double-booking guard.
type HoldStore interface {
	// TryHold atomically grants the hold when the key is free or its
	// current hold has expired. Returns granted=false when another
	// holder owns a live hold. A holder re-requesting its own live
	// hold is also refused; the original expiry stands.
	TryHold(ctx context.Context, key models.SlotHoldKey, holderID uuid.UUID, ttl time.Duration) (bool, time.Time, error)

	// Release removes the hold when holderID owns it. Returns whether
	// a hold was removed; releasing an absent or foreign hold is a no-op.
	Release(ctx context.Context, key models.SlotHoldKey, holderID uuid.UUID) (bool, error)

	// IsHeld reports whether a live hold exists for the key
	IsHeld(ctx context.Context, key models.SlotHoldKey) (bool, error)

	// ListHolds returns the live holds for a center on a work date
	ListHolds(ctx context.Context, centerID uuid.UUID, workDate string) ([]models.SlotHold, error)
}

// MemoryHoldStore is the in-process HoldStore. A single mutex guards
// the map; hold operations are short and uncontended enough that
// sharding would be noise. Expired entries are dropped lazily on
// access and in bulk by Sweep.
type MemoryHoldStore struct {
	mu     sync.Mutex
	holds  map[models.SlotHoldKey]models.SlotHold
	logger *logrus.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewMemoryHoldStore creates an empty in-memory hold store
func NewMemoryHoldStore(logger *logrus.Logger) *MemoryHoldStore {
	return &MemoryHoldStore{
		holds:  make(map[models.SlotHoldKey]models.SlotHold),
		logger: logger,
		now:    time.Now,
	}
}

// TryHold implements HoldStore
func (s *MemoryHoldStore) TryHold(_ context.Context, key models.SlotHoldKey, holderID uuid.UUID, ttl time.Duration) (bool, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if existing, ok := s.holds[key]; ok {
		if !existing.Expired(now) {
			// Live hold wins, even against its own holder
			return false, time.Time{}, nil
		}
		delete(s.holds, key)
	}

	expiresAt := now.Add(ttl)
	s.holds[key] = models.SlotHold{
		Key:       key,
		HolderID:  holderID,
		ExpiresAt: expiresAt,
	}

	s.logger.WithFields(logrus.Fields{
		"center_id":     key.CenterID,
		"work_date":     key.WorkDate,
		"slot_id":       key.SlotID,
		"technician_id": key.TechnicianID,
		"holder_id":     holderID,
		"expires_at":    expiresAt,
	}).Debug("Slot hold granted")

	return true, expiresAt, nil
}

// Release implements HoldStore
func (s *MemoryHoldStore) Release(_ context.Context, key models.SlotHoldKey, holderID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.holds[key]
	if !ok || existing.Expired(s.now()) {
		delete(s.holds, key)
		return false, nil
	}
	if existing.HolderID != holderID {
		return false, nil
	}

	delete(s.holds, key)
	return true, nil
}

// IsHeld implements HoldStore
func (s *MemoryHoldStore) IsHeld(_ context.Context, key models.SlotHoldKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.holds[key]
	if !ok {
		return false, nil
	}
	if existing.Expired(s.now()) {
		delete(s.holds, key)
		return false, nil
	}

	return true, nil
}

// ListHolds implements HoldStore
func (s *MemoryHoldStore) ListHolds(_ context.Context, centerID uuid.UUID, workDate string) ([]models.SlotHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	holds := make([]models.SlotHold, 0)
	for key, hold := range s.holds {
		if hold.Expired(now) {
			delete(s.holds, key)
			continue
		}
		if key.CenterID == centerID && key.WorkDate == workDate {
			holds = append(holds, hold)
		}
	}

	return holds, nil
}

// Sweep drops all expired holds and returns how many were removed.
// Called from the periodic maintenance job so abandoned holds do not
// accumulate between reads.
func (s *MemoryHoldStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, hold := range s.holds {
		if hold.Expired(now) {
			delete(s.holds, key)
			removed++
		}
	}

	return removed
}
