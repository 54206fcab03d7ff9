package response

import (
	"time"

	"toolrental/internal/usecase/queries"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	IsRead          bool      `json:"isRead"`
	RelatedObjectID string    `json:"relatedObjectId"`
	CreatedAt       time.Time `json:"createdAt"`
}

func FromNotificationList(items []*queries.NotificationView) []*NotificationResponse {
	res := make([]*NotificationResponse, len(items))
	for i, it := range items {
		res[i] = &NotificationResponse{
			ID:              it.ID,
			Type:            it.Type,
			Title:           it.Title,
			Message:         it.Message,
			IsRead:          it.IsRead,
			RelatedObjectID: it.RelatedObjectID,
			CreatedAt:       it.CreatedAt,
		}
	}
	return res
}
