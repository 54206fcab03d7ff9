package commands

import (
	"toolrental/internal/domain/booking"
	"toolrental/internal/domain/notification"
	"toolrental/internal/infra"
	"toolrental/internal/pkg/errs"
)

var (
	ErrValidation            = errs.New("validation error")
	ErrToolNotFound          = errs.New("tool not found")
	ErrBookingNotFound       = errs.New("booking not found")
	ErrNotificationNotFound  = errs.New("notification not found")
	ErrForbidden             = errs.New("forbidden")
	ErrInvalidBookingStatus  = errs.New("invalid booking status for this action")
	ErrInsufficientInventory = errs.New("insufficient inventory")
	ErrBookingStateConflict  = errs.New("booking was modified concurrently")
	ErrPaymentOrderMissing   = errs.New("payment order missing")
	ErrInvalidSignature      = errs.New("invalid payment signature")
	ErrMissingSignature      = errs.New("missing signature")
	ErrIdempotencyInProgress = errs.New("idempotency in progress")
	ErrIdempotencyKeyReused  = errs.New("idempotency key reused with a different request")
)

// classifyDomainErr marks a domain error with the command sentinel the
// handlers map to a status.
func classifyDomainErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errs.Is(err, booking.ErrNotShopOwner),
		errs.Is(err, booking.ErrNotRenter),
		errs.Is(err, booking.ErrNotBookingParty):
		return errs.Mark(err, ErrForbidden)
	case errs.Is(err, booking.ErrInsufficientInventory):
		return errs.Mark(err, ErrInsufficientInventory)
	case errs.Is(err, booking.ErrPaymentOrderMissing):
		return errs.Mark(err, ErrPaymentOrderMissing)
	case errs.Is(err, booking.ErrInvalidTransition),
		errs.Is(err, booking.ErrAlreadyPaid),
		errs.Is(err, booking.ErrPaymentMethodMismatch),
		errs.Is(err, booking.ErrAlreadyPickedUp):
		return errs.Mark(err, ErrInvalidBookingStatus)
	case errs.Is(err, booking.ErrInvalidQuantity),
		errs.Is(err, booking.ErrInvalidPeriod),
		errs.Is(err, booking.ErrStartInPast),
		errs.Is(err, booking.ErrSelfBooking),
		errs.Is(err, booking.ErrToolUnavailable),
		errs.Is(err, booking.ErrInvalidPaymentMethod),
		errs.Is(err, booking.ErrInvalidAmount),
		errs.Is(err, booking.ErrNotesTooLong),
		errs.Is(err, notification.ErrEmptyTitle),
		errs.Is(err, notification.ErrTitleTooLong):
		return errs.Mark(err, ErrValidation)
	default:
		return err
	}
}

func mapUpdateErr(err error) error {
	if infra.IsKind(err, infra.KindConflict) || infra.IsKind(err, infra.KindDuplicateKey) {
		return errs.Mark(err, ErrBookingStateConflict)
	}
	return err
}
