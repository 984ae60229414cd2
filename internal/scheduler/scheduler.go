package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/skypulse/internal/logger"
	"github.com/i474232898/skypulse/internal/weather"
)

// Refetcher is the part of weather.Session the scheduler drives.
type Refetcher interface {
	Refetch(ctx context.Context) (*weather.Snapshot, error)
}

// Scheduler periodically refreshes the active dashboard location.
type Scheduler struct {
	scheduler *gocron.Scheduler
	session   Refetcher
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. Intervals under a minute are raised to the default.
func New(session Refetcher, interval, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		session:   session,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 10
	}

	// The first run happens one interval after start; the session is empty until a
	// client selects a location.
	_, err := s.scheduler.Every(minutes).Minutes().WaitForSchedule().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	logger.GetLogger().Infow("Scheduler started", "intervalMinutes", minutes)
	return nil
}

// RunOnce refetches the active location once. A session without a location is skipped.
func (s *Scheduler) RunOnce() {
	log := logger.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	snap, err := s.session.Refetch(ctx)
	switch {
	case errors.Is(err, weather.ErrNoSession):
		log.Debugw("Scheduler: no active location; skipping refresh")
	case errors.Is(err, weather.ErrSuperseded):
		log.Debugw("Scheduler: refresh superseded by a newer request")
	case err != nil:
		log.Warnw("Scheduler: refresh failed; keeping previous snapshot", "error", err)
	default:
		log.Infow("Scheduler: refreshed weather", "location", snap.Data.Current.Location, "cycleID", snap.CycleID)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
