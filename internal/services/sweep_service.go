package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SweepService runs periodic maintenance jobs: cancelling orphaned
// PENDING bookings and dropping expired in-memory holds.
type SweepService struct {
	cron            *cron.Cron
	bookingRepo     BookingStore
	memoryHolds     *MemoryHoldStore // nil when holds live in Redis
	orphanThreshold time.Duration
	logger          *logrus.Logger
}

// NewSweepService creates a new SweepService. memoryHolds may be nil
// when the Redis hold store is in use; Redis expires its own keys.
func NewSweepService(
	bookingRepo BookingStore,
	memoryHolds *MemoryHoldStore,
	orphanThreshold time.Duration,
	logger *logrus.Logger,
) *SweepService {
	return &SweepService{
		cron:            cron.New(),
		bookingRepo:     bookingRepo,
		memoryHolds:     memoryHolds,
		orphanThreshold: orphanThreshold,
		logger:          logger,
	}
}

// Start schedules the maintenance jobs
func (s *SweepService) Start() error {
	// Every minute: cancel PENDING bookings that lost their slot race
	// and were never bound
	if _, err := s.cron.AddFunc("* * * * *", s.sweepOrphanedBookings); err != nil {
		return fmt.Errorf("failed to schedule orphaned booking sweep: %w", err)
	}

	if s.memoryHolds != nil {
		if _, err := s.cron.AddFunc("* * * * *", s.sweepExpiredHolds); err != nil {
			return fmt.Errorf("failed to schedule hold sweep: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("Sweep service started")

	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *SweepService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Sweep service stopped")
}

func (s *SweepService) sweepOrphanedBookings() {
	cancelled, err := s.bookingRepo.CancelOrphanedPending(s.orphanThreshold)
	if err != nil {
		s.logger.WithError(err).Error("Orphaned booking sweep failed")
		return
	}
	if cancelled > 0 {
		s.logger.WithField("cancelled", cancelled).Info("Cancelled orphaned pending bookings")
	}
}

func (s *SweepService) sweepExpiredHolds() {
	if removed := s.memoryHolds.Sweep(); removed > 0 {
		s.logger.WithField("removed", removed).Debug("Swept expired slot holds")
	}
}
