package janitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/turnstile/pkg/limits"
	"mercator-hq/turnstile/pkg/telemetry/logging"
)

// Sweeper performs one maintenance pass. limits.Manager implements it.
type Sweeper interface {
	Sweep(ctx context.Context) (limits.SweepResult, error)
}

// Scheduler runs a Sweeper on a cron schedule. A sweep that is still
// running when the next one is due causes that next run to be skipped.
type Scheduler struct {
	sweeper  Sweeper
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *logging.Logger
	running  bool
}

// NewScheduler creates a new sweep scheduler. A nil logger logs to
// slog.Default().
func NewScheduler(sweeper Sweeper, schedule string, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.FromSlog(nil)
	}

	return &Scheduler{
		sweeper:  sweeper,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger.With("component", "janitor"),
	}
}

// Start begins scheduled sweeps using a standard 5-field cron expression or
// a descriptor such as "@every 30s".
//
// Common cron expressions:
//   - "*/5 * * * *"  - Every 5 minutes
//   - "0 * * * *"    - Hourly
//   - "@every 30s"   - Every 30 seconds
//
// If the schedule is empty, the scheduler does nothing. The scheduler stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("sweep scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce performs a sweep immediately, outside the schedule.
func (s *Scheduler) RunOnce(ctx context.Context) (limits.SweepResult, error) {
	return s.sweeper.Sweep(ctx)
}

// runSweep executes a scheduled sweep.
func (s *Scheduler) runSweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.logger.Error("scheduled sweep failed", "error", err)
		return
	}

	s.logger.Debug("scheduled sweep completed",
		"evicted_clients", result.EvictedClients,
		"purged_decisions", result.PurgedDecisions,
	)
}

// Stop stops the scheduler and waits for a running sweep to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		done := s.cron.Stop()
		<-done.Done()
		s.running = false
		s.logger.Info("sweep scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled sweep time, or nil when nothing is
// scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
