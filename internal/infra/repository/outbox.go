package repository

import (
	"context"
	"time"

	"toolrental/internal/infra"
	"toolrental/internal/infra/db"
	"toolrental/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	enqueueJobQuery = `INSERT INTO notification_jobs (kind, topic, payload, status, run_at)
VALUES ($1, $2, $3, 'queued', $4)`

	claimDueJobsQuery = `UPDATE notification_jobs
SET run_at = $2, updated_at = $1
WHERE id IN (
	SELECT id FROM notification_jobs
	WHERE status IN ('queued', 'failed') AND run_at <= $1
	ORDER BY run_at
	LIMIT $3
	FOR UPDATE SKIP LOCKED
)
RETURNING id, kind, topic, payload, attempts, run_at, created_at`

	markJobSentQuery = `UPDATE notification_jobs
SET status = 'sent', updated_at = $2
WHERE id = $1`

	markJobFailedQuery = `UPDATE notification_jobs
SET attempts = attempts + 1,
	status = CASE WHEN attempts + 1 >= $4 THEN 'dead' ELSE 'failed' END,
	last_error = $2,
	run_at = $3,
	updated_at = now()
WHERE id = $1`
)

// OutboxRepository stores jobs in notification_jobs for the dispatcher to publish.
type OutboxRepository struct{}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, tx db.DBTX, kind, topic string, payload []byte, runAt time.Time) error {
	if _, err := tx.Exec(ctx, enqueueJobQuery, kind, topic, payload, runAt); err != nil {
		return infra.WrapRepoErr("failed to create notification job", err)
	}
	return nil
}

// ClaimDue leases up to limit due jobs by pushing their run_at to leaseUntil.
// A job that is neither marked sent nor failed becomes due again once the lease
// runs out.
func (r *OutboxRepository) ClaimDue(ctx context.Context, tx db.DBTX, now, leaseUntil time.Time, limit int) ([]shared.OutboxJob, error) {
	rows, err := tx.Query(ctx, claimDueJobsQuery, now, leaseUntil, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim notification jobs", err)
	}

	jobs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shared.OutboxJob, error) {
		var (
			j        shared.OutboxJob
			attempts int32
		)
		err := row.Scan(&j.ID, &j.Kind, &j.Topic, &j.Payload, &attempts, &j.RunAt, &j.CreatedAt)
		j.Attempts = int(attempts)
		return j, err
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan notification jobs", err)
	}
	return jobs, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, tx db.DBTX, id uuid.UUID, at time.Time) error {
	if _, err := tx.Exec(ctx, markJobSentQuery, id, at); err != nil {
		return infra.WrapRepoErr("failed to update notification job status", err)
	}
	return nil
}

// MarkFailed records an attempt; the job is dead once attempts reach maxAttempts.
func (r *OutboxRepository) MarkFailed(ctx context.Context, tx db.DBTX, id uuid.UUID, lastError string, nextRunAt time.Time, maxAttempts int) error {
	if _, err := tx.Exec(ctx, markJobFailedQuery, id, lastError, nextRunAt, maxAttempts); err != nil {
		return infra.WrapRepoErr("failed to update notification job status", err)
	}
	return nil
}
