//go:build unit

package notification_test

import (
	"strings"
	"testing"
	"time"

	"toolrental/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotification(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	userID := uuid.New()

	t.Run("basic success case", func(t *testing.T) {
		n, err := notification.NewNotification(userID, notification.TypeBooking, " Booking Confirmed ", "see you soon", "b-1", now)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, n.ID())
		assert.Equal(t, userID, n.UserID())
		assert.Equal(t, notification.TypeBooking, n.Type())
		assert.Equal(t, "Booking Confirmed", n.Title())
		assert.Equal(t, "b-1", n.RelatedObjectID())
		assert.False(t, n.IsRead())
		assert.Equal(t, now, n.CreatedAt())
	})

	tests := []struct {
		name   string
		userID uuid.UUID
		kind   notification.Type
		title  string
		errIs  error
	}{
		{"missing recipient", uuid.Nil, notification.TypeBooking, "t", notification.ErrMissingUser},
		{"unknown type", userID, "sms", "t", notification.ErrInvalidType},
		{"blank title", userID, notification.TypePayment, "   ", notification.ErrEmptyTitle},
		{"title too long", userID, notification.TypePayment, strings.Repeat("a", notification.MaxTitleLength+1), notification.ErrTitleTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := notification.NewNotification(tt.userID, tt.kind, tt.title, "", "", now)
			assert.ErrorIs(t, err, tt.errIs)
		})
	}
}
