//go:build unit

package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"toolrental/internal/infra"
	"toolrental/internal/infra/repository"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tryInsertKeySQL  = regexp.QuoteMeta("INSERT INTO idempotency_keys")
	completeKeySQL   = regexp.QuoteMeta("SET status = 'completed'")
	deleteKeySQL     = regexp.QuoteMeta("WHERE key = $1 AND user_id = $2 AND status = 'processing'")
	deleteExpiredSQL = regexp.QuoteMeta("DELETE FROM idempotency_keys WHERE expires_at < $1")
)

func TestIdempotencyRepository_TryInsert(t *testing.T) {
	ctx := context.Background()
	key, userID := uuid.New(), uuid.New()
	expires := time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		rows    int64
		claimed bool
	}{
		{name: "fresh key is claimed", rows: 1, claimed: true},
		{name: "live key is left alone", rows: 0, claimed: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMockPool(t)
			mock.ExpectExec(tryInsertKeySQL).
				WithArgs(key, userID, "POST /api/bookings", "hash", expires).
				WillReturnResult(pgxmock.NewResult("INSERT", tc.rows))

			claimed, err := repository.NewIdempotencyRepository().TryInsert(ctx, mock, key, userID, "POST /api/bookings", "hash", expires)
			require.NoError(t, err)
			assert.Equal(t, tc.claimed, claimed)
		})
	}
}

func TestIdempotencyRepository_UpdateStatusCompleted(t *testing.T) {
	ctx := context.Background()
	key, userID, bookingID := uuid.New(), uuid.New(), uuid.New()

	t.Run("success", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(completeKeySQL).WithArgs(key, userID, "resp", bookingID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repository.NewIdempotencyRepository().UpdateStatusCompleted(ctx, mock, key, userID, "resp", bookingID))
	})

	t.Run("error: key vanished", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(completeKeySQL).WithArgs(key, userID, "resp", bookingID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repository.NewIdempotencyRepository().UpdateStatusCompleted(ctx, mock, key, userID, "resp", bookingID)
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
	})
}

func TestIdempotencyRepository_Delete(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	key, userID := uuid.New(), uuid.New()
	now := time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(deleteKeySQL).WithArgs(key, userID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(deleteExpiredSQL).WithArgs(now).WillReturnResult(pgxmock.NewResult("DELETE", 7))

	repo := repository.NewIdempotencyRepository()
	require.NoError(t, repo.Delete(ctx, mock, key, userID))

	n, err := repo.DeleteExpired(ctx, mock, now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
