package worker

import (
	"context"
	"log/slog"

	"toolrental/internal/usecase/shared"
)

func (jr *JobRunner) CleanupIdempotencyKeys() {
	jr.runWithRecovery("CleanupIdempotencyKeys", func(ctx context.Context) {
		var deleted int64
		err := jr.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			n, err := tx.Idempotency().DeleteExpired(ctx, tx.DB(), jr.clock.Now())
			if err != nil {
				return err
			}
			deleted = n
			return nil
		})
		if err != nil {
			slog.Error("failed to delete expired idempotency keys", "error", err)
			return
		}
		slog.Info("expired idempotency keys deleted", "count", deleted)
	})
}
