package worker

import (
	"context"
	"log/slog"
	"time"

	"toolrental/internal/infra/events"
	"toolrental/internal/pkg/clock"
	"toolrental/internal/pkg/config"
	"toolrental/internal/usecase/shared"
)

const (
	jobTimeout     = 30 * time.Second
	markTimeout    = 5 * time.Second
	baseRetryDelay = 10 * time.Second
	maxRetryDelay  = 30 * time.Minute

	// claimLease outlives any run, so a claimed job is never handed to a second
	// dispatcher while the first may still publish it.
	claimLease = 2 * jobTimeout
)

// JobRunner owns the background jobs the scheduler triggers.
type JobRunner struct {
	uow       shared.UnitOfWork
	publisher events.Publisher
	clock     clock.Clock
	cfg       config.WorkerConfig
}

func NewJobRunner(uow shared.UnitOfWork, publisher events.Publisher, clk clock.Clock, cfg config.WorkerConfig) *JobRunner {
	return &JobRunner{
		uow:       uow,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
	}
}

func (jr *JobRunner) Config() config.WorkerConfig {
	return jr.cfg
}

// runWithRecovery keeps a panicking job from taking the scheduler down.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	slog.Debug("starting job", "job", jobName)
	jobFunc(ctx)
	slog.Debug("job completed", "job", jobName, "duration", time.Since(start))
}

// retryDelay doubles per attempt up to maxRetryDelay.
func retryDelay(attempts int) time.Duration {
	d := baseRetryDelay
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return d
}
