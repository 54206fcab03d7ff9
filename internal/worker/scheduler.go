package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron *cron.Cron
	jobs *JobRunner
}

// NewScheduler registers every job; schedules use the six-field cron format.
func NewScheduler(jobRunner *JobRunner) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}
	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config()

	if _, err := s.cron.AddFunc(cfg.OutboxDispatchSchedule, s.jobs.DispatchOutbox); err != nil {
		return fmt.Errorf("register DispatchOutbox job: %w", err)
	}
	if _, err := s.cron.AddFunc(cfg.IdempotencyCleanupSchedule, s.jobs.CleanupIdempotencyKeys); err != nil {
		return fmt.Errorf("register CleanupIdempotencyKeys job: %w", err)
	}

	slog.Info("cron jobs registered", "count", len(s.cron.Entries()))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("cron scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("cron scheduler stopped")
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
