package worker

import (
	"context"
	"log/slog"

	"toolrental/internal/usecase/shared"
)

// DispatchOutbox publishes due outbox jobs. Claiming leases a batch in its own
// transaction; each publish result is then recorded in a short transaction of
// its own, so a slow broker never rolls back attempts already made.
func (jr *JobRunner) DispatchOutbox() {
	jr.runWithRecovery("DispatchOutbox", func(ctx context.Context) {
		sent, failed, err := jr.dispatchOutbox(ctx)
		if err != nil {
			slog.Error("failed to dispatch outbox", "error", err, "sent", sent, "failed", failed)
			return
		}
		if sent > 0 || failed > 0 {
			slog.Info("outbox dispatched", "sent", sent, "failed", failed)
		}
	})
}

func (jr *JobRunner) dispatchOutbox(ctx context.Context) (sent, failed int, err error) {
	jobs, err := jr.claimOutbox(ctx)
	if err != nil {
		return 0, 0, err
	}

	for i, job := range jobs {
		if ctx.Err() != nil {
			slog.Warn("outbox batch interrupted, remaining jobs wait for their lease",
				"remaining", len(jobs)-i,
				"error", ctx.Err())
			return sent, failed, ctx.Err()
		}

		pubErr := jr.publisher.Publish(ctx, job)
		if err := jr.recordOutcome(ctx, job, pubErr); err != nil {
			return sent, failed, err
		}
		if pubErr != nil {
			failed++
			continue
		}
		sent++
	}
	return sent, failed, nil
}

func (jr *JobRunner) claimOutbox(ctx context.Context) ([]shared.OutboxJob, error) {
	var jobs []shared.OutboxJob
	err := jr.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := jr.clock.Now()
		var err error
		jobs, err = tx.Outbox().ClaimDue(ctx, tx.DB(), now, now.Add(claimLease), jr.cfg.OutboxBatchSize)
		return err
	})
	return jobs, err
}

// recordOutcome runs on a context detached from the job deadline so a publish
// that exhausted it still gets its attempt recorded.
func (jr *JobRunner) recordOutcome(ctx context.Context, job shared.OutboxJob, pubErr error) error {
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancel()

	return jr.uow.Within(markCtx, func(ctx context.Context, tx shared.Tx) error {
		now := jr.clock.Now()
		if pubErr == nil {
			return tx.Outbox().MarkSent(ctx, tx.DB(), job.ID, now)
		}
		slog.Warn("failed to publish outbox job",
			"job_id", job.ID,
			"topic", job.Topic,
			"attempts", job.Attempts+1,
			"error", pubErr)
		return tx.Outbox().MarkFailed(ctx, tx.DB(), job.ID, pubErr.Error(), now.Add(retryDelay(job.Attempts)), jr.cfg.OutboxMaxAttempts)
	})
}
