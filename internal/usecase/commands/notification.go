package commands

import (
	"context"
	"log/slog"

	"toolrental/internal/infra"
	"toolrental/internal/usecase/shared"

	"github.com/google/uuid"
)

type NotificationCommands interface {
	MarkRead(ctx context.Context, notificationID uuid.UUID, actor Actor) error
	MarkAllRead(ctx context.Context, actor Actor) (int64, error)
}

type notificationUseCaseImpl struct {
	uow shared.UnitOfWork
}

func NewNotificationUseCase(uow shared.UnitOfWork) NotificationCommands {
	return &notificationUseCaseImpl{uow: uow}
}

func (uc *notificationUseCaseImpl) MarkRead(ctx context.Context, notificationID uuid.UUID, actor Actor) error {
	return uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Notifications().MarkRead(ctx, tx.DB(), notificationID, actor.UserID); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrNotificationNotFound
			}
			return err
		}
		return nil
	})
}

func (uc *notificationUseCaseImpl) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	var updated int64
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		n, err := tx.Notifications().MarkAllRead(ctx, tx.DB(), actor.UserID)
		if err != nil {
			return err
		}
		updated = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.Debug("notifications marked read", "user_id", actor.UserID, "count", updated)
	return updated, nil
}
