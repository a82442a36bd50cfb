package watch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron to request forced rebuilds at a fixed interval.
type Scheduler struct {
	scheduler gocron.Scheduler
	target    Requester
}

// NewScheduler creates a scheduler sending requests to target.
func NewScheduler(target Requester) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, target: target}, nil
}

// SchedulePeriodicRebuild registers a forced rebuild every interval and
// returns the job ID.
func (s *Scheduler) SchedulePeriodicRebuild(interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %s", interval)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.target.Request, "schedule", true),
		gocron.WithName("forced-rebuild"),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	return job.ID().String(), nil
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
