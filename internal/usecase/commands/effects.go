package commands

import (
	"context"
	"encoding/json"
	"time"

	"toolrental/internal/domain/booking"
	"toolrental/internal/domain/notification"
	"toolrental/internal/infra"
	"toolrental/internal/pkg/errs"
	"toolrental/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	jobKindBookingEvent = "booking_event"
	jobKindNotification = "notification"

	topicNotificationCreated = "notification.created"
	bookingTopicPrefix       = "booking."
)

type notice struct {
	userID  uuid.UUID
	kind    notification.Type
	title   string
	message string
}

type bookingEventPayload struct {
	BookingID     uuid.UUID `json:"bookingId"`
	ToolID        uuid.UUID `json:"toolId"`
	RenterID      uuid.UUID `json:"renterId"`
	OwnerID       uuid.UUID `json:"ownerId"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	TotalAmount   int64     `json:"totalAmount"`
}

type notificationPayload struct {
	NotificationID uuid.UUID `json:"notificationId"`
	BookingID      uuid.UUID `json:"bookingId"`
	UserID         uuid.UUID `json:"userId"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
}

// recordEffects writes inbox rows and outbox jobs in the caller's transaction,
// so they exist only if the transition commits.
func recordEffects(ctx context.Context, tx shared.Tx, now time.Time, b *booking.Booking, event string, notices ...notice) error {
	for _, nt := range notices {
		n, err := notification.NewNotification(nt.userID, nt.kind, nt.title, nt.message, b.ID().String(), now)
		if err != nil {
			return classifyDomainErr(err)
		}
		if err := tx.Notifications().Create(ctx, tx.DB(), n); err != nil {
			return err
		}

		payload, err := json.Marshal(notificationPayload{
			NotificationID: n.ID(),
			BookingID:      b.ID(),
			UserID:         n.UserID(),
			Type:           n.Type().String(),
			Title:          n.Title(),
			Message:        n.Message(),
		})
		if err != nil {
			return errs.Wrap(err, "failed to encode notification payload")
		}
		if err := tx.Outbox().Enqueue(ctx, tx.DB(), jobKindNotification, topicNotificationCreated, payload, now); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(bookingEventPayload{
		BookingID:     b.ID(),
		ToolID:        b.ToolID(),
		RenterID:      b.RenterID(),
		OwnerID:       b.OwnerID(),
		Status:        b.Status().String(),
		PaymentStatus: b.PaymentStatus().String(),
		TotalAmount:   b.Total().Minor(),
	})
	if err != nil {
		return errs.Wrap(err, "failed to encode booking event payload")
	}
	return tx.Outbox().Enqueue(ctx, tx.DB(), jobKindBookingEvent, bookingTopicPrefix+event, payload, now)
}

// loadBooking hides bookings the actor may not see behind ErrBookingNotFound.
func loadBooking(ctx context.Context, tx shared.Tx, id uuid.UUID, actor Actor) (*booking.Booking, error) {
	b, err := tx.Bookings().Get(ctx, tx.DB(), id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !b.IsParty(actor.UserID) && !actor.Role.IsAdmin() {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func saveTransition(ctx context.Context, tx shared.Tx, b *booking.Booking, prev booking.State) error {
	if err := tx.Bookings().UpdateState(ctx, tx.DB(), b, prev); err != nil {
		return mapUpdateErr(err)
	}
	return nil
}

func toolName(ctx context.Context, tx shared.Tx, b *booking.Booking) (string, error) {
	tool, err := tx.Reads().ToolByID(ctx, b.ToolID())
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return "", ErrToolNotFound
		}
		return "", err
	}
	return tool.Name, nil
}
