package repository

import (
	"context"

	"toolrental/internal/domain/notification"
	"toolrental/internal/infra"
	"toolrental/internal/infra/db"

	"github.com/google/uuid"
)

const (
	createNotificationQuery = `INSERT INTO notifications (id, user_id, type, title, message, is_read, related_object_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	markNotificationReadQuery = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`

	markAllNotificationsReadQuery = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`
)

// NotificationRepository writes the in-app inbox.
type NotificationRepository struct{}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) Create(ctx context.Context, tx db.DBTX, n *notification.Notification) error {
	_, err := tx.Exec(ctx, createNotificationQuery,
		n.ID(),
		n.UserID(),
		n.Type().String(),
		n.Title(),
		n.Message(),
		n.IsRead(),
		n.RelatedObjectID(),
		n.CreatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create notification", err)
	}
	return nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, tx db.DBTX, id, userID uuid.UUID) error {
	tag, err := tx.Exec(ctx, markNotificationReadQuery, id, userID)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification read", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("notification not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, tx db.DBTX, userID uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx, markAllNotificationsReadQuery, userID)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to mark notifications read", err)
	}
	return tag.RowsAffected(), nil
}
