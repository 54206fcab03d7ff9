package repository

import (
	"context"
	"time"

	"toolrental/internal/infra"
	"toolrental/internal/infra/db"

	"github.com/google/uuid"
)

const (
	tryInsertIdempotencyKeyQuery = `INSERT INTO idempotency_keys (key, user_id, endpoint, request_hash, status, expires_at)
VALUES ($1, $2, $3, $4, 'processing', $5)
ON CONFLICT (key, user_id) DO UPDATE
SET endpoint = EXCLUDED.endpoint,
	request_hash = EXCLUDED.request_hash,
	status = 'processing',
	response_body_hash = NULL,
	result_booking_id = NULL,
	expires_at = EXCLUDED.expires_at,
	created_at = now()
WHERE idempotency_keys.expires_at < now()`

	updateIdempotencyKeyCompletedQuery = `UPDATE idempotency_keys
SET status = 'completed', response_body_hash = $3, result_booking_id = $4
WHERE key = $1 AND user_id = $2`

	deleteIdempotencyKeyQuery = `DELETE FROM idempotency_keys
WHERE key = $1 AND user_id = $2 AND status = 'processing'`

	deleteExpiredIdempotencyKeysQuery = `DELETE FROM idempotency_keys WHERE expires_at < $1`
)

type IdempotencyRepository struct{}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{}
}

// TryInsert reports whether this call claimed the key. An unexpired existing
// key is left untouched and an expired one is taken over.
func (r *IdempotencyRepository) TryInsert(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, tryInsertIdempotencyKeyQuery, key, userID, endpoint, requestHash, expiresAt)
	if err != nil {
		return false, infra.WrapRepoErr("failed to try insert idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdempotencyRepository) UpdateStatusCompleted(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, responseBodyHash string, bookingID uuid.UUID) error {
	tag, err := tx.Exec(ctx, updateIdempotencyKeyCompletedQuery, key, userID, responseBodyHash, bookingID)
	if err != nil {
		return infra.WrapRepoErr("failed to update idempotency key status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	return nil
}

// Delete drops a processing key so the client can retry after a failed attempt.
func (r *IdempotencyRepository) Delete(ctx context.Context, tx db.DBTX, key, userID uuid.UUID) error {
	if _, err := tx.Exec(ctx, deleteIdempotencyKeyQuery, key, userID); err != nil {
		return infra.WrapRepoErr("failed to delete idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, tx db.DBTX, now time.Time) (int64, error) {
	tag, err := tx.Exec(ctx, deleteExpiredIdempotencyKeysQuery, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
