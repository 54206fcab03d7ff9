package readstore

import (
	"context"

	"toolrental/internal/infra"
	"toolrental/internal/infra/db"
	"toolrental/internal/pkg/pgconv"
	"toolrental/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const listNotificationsQuery = `SELECT id, type, title, message, is_read, related_object_id, created_at
FROM notifications
WHERE user_id = $1
	AND (NOT $2::boolean OR NOT is_read)
	AND ($3::timestamptz IS NULL OR (created_at, id) < ($3, $4::uuid))
ORDER BY created_at DESC, id DESC
LIMIT $5`

type NotificationReadStore struct {
	db db.DBTX
}

func NewNotificationReadStore(db db.DBTX) *NotificationReadStore {
	return &NotificationReadStore{db: db}
}

func (r *NotificationReadStore) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, after *queries.Keyset, limit int32) ([]*queries.NotificationView, error) {
	afterAt := pgtype.Timestamptz{}
	afterID := pgtype.UUID{}
	if after != nil {
		afterAt = pgconv.TimeToPgtype(after.CreatedAt)
		afterID = pgconv.UUIDToPgtype(after.ID)
	}

	rows, err := r.db.Query(ctx, listNotificationsQuery, userID, unreadOnly, afterAt, afterID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list notifications", err)
	}

	views, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*queries.NotificationView, error) {
		var v queries.NotificationView
		err := row.Scan(&v.ID, &v.Type, &v.Title, &v.Message, &v.IsRead, &v.RelatedObjectID, &v.CreatedAt)
		return &v, err
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan notifications", err)
	}
	return views, nil
}
