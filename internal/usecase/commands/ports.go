package commands

import (
	"time"

	"toolrental/internal/domain/user"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of a command.
type Actor struct {
	UserID uuid.UUID
	Role   user.Role
}

type CreateBookingInput struct {
	ToolID        uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
	Quantity      int
	RentalPrice   *int64
	DepositAmount *int64
	PaymentMethod string
	Notes         string
}

type CreateBookingResult struct {
	BookingID  uuid.UUID
	IsReplayed bool
}

type PaymentOrderResult struct {
	OrderID     string
	AmountMinor int64
	Currency    string
	Key         string
}

type WebhookOutcome string

const (
	WebhookApplied       WebhookOutcome = "applied"
	WebhookIgnored       WebhookOutcome = "ignored"
	WebhookUnknownOrder  WebhookOutcome = "unknown_order"
	WebhookAlreadyPaid   WebhookOutcome = "already_paid"
	WebhookClosedBooking WebhookOutcome = "closed_booking"
)
