package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type NotificationReadStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, after *Keyset, limit int32) ([]*NotificationView, error)
}

type NotificationQueries interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, cursor *Cursor, limit int) ([]*NotificationView, *Cursor, error)
}

type notificationQueriesImpl struct {
	store NotificationReadStore
}

func NewNotificationQueries(store NotificationReadStore) NotificationQueries {
	return &notificationQueriesImpl{store: store}
}

func (q *notificationQueriesImpl) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, cursor *Cursor, limit int) ([]*NotificationView, *Cursor, error) {
	after, err := decodeKeyset(cursor)
	if err != nil {
		return nil, nil, err
	}

	limit = ValidateLimit(limit)
	rows, err := q.store.ListByUser(ctx, userID, unreadOnly, after, int32(limit+1)) // #nosec G115 -- limit is capped by ValidateLimit
	if err != nil {
		return nil, nil, err
	}

	page, next := paginate(rows, limit, func(v *NotificationView) (time.Time, uuid.UUID) {
		return v.CreatedAt, v.ID
	})
	return page, next, nil
}
