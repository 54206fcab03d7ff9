package readstore

import (
	"context"
	"time"

	"toolrental/internal/infra"
	"toolrental/internal/infra/db"
	"toolrental/internal/pkg/pgconv"
	"toolrental/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getIdempotencyKeyQuery = `SELECT key, user_id, status, request_hash, result_booking_id, expires_at
FROM idempotency_keys
WHERE key = $1 AND user_id = $2`

type IdempotencyReadStore struct {
	now func() time.Time
}

func NewIdempotencyReadStore(now func() time.Time) *IdempotencyReadStore {
	return &IdempotencyReadStore{now: now}
}

// Get treats an expired key as missing.
func (r *IdempotencyReadStore) Get(ctx context.Context, tx db.DBTX, key, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	var (
		record   shared.IdempotencyRecord
		resultID pgtype.UUID
	)
	err := tx.QueryRow(ctx, getIdempotencyKeyQuery, key, userID).Scan(
		&record.Key, &record.UserID, &record.Status, &record.RequestHash, &resultID, &record.ExpiresAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}
	record.ResultBookingID = pgconv.UUIDPtrFromPgtype(resultID)

	if r.now().After(record.ExpiresAt) {
		return nil, infra.WrapRepoErr("idempotency key expired", nil, infra.KindNotFound)
	}
	return &record, nil
}
