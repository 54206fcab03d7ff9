package commands

import (
	"context"
	"fmt"
	"log/slog"

	"toolrental/internal/domain/booking"
	"toolrental/internal/domain/notification"
	"toolrental/internal/infra"
	"toolrental/internal/pkg/clock"
	"toolrental/internal/pkg/errs"
	"toolrental/internal/usecase/shared"

	"github.com/google/uuid"
)

type PaymentCommands interface {
	CreatePayment(ctx context.Context, bookingID uuid.UUID, actor Actor) (*PaymentOrderResult, error)
	VerifyPayment(ctx context.Context, bookingID uuid.UUID, actor Actor, paymentRef, signature string) error
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) (WebhookOutcome, error)
}

type paymentUseCaseImpl struct {
	uow     shared.UnitOfWork
	gateway shared.PaymentGateway
	clock   clock.Clock
}

func NewPaymentUseCase(uow shared.UnitOfWork, gateway shared.PaymentGateway, clk clock.Clock) PaymentCommands {
	return &paymentUseCaseImpl{uow: uow, gateway: gateway, clock: clk}
}

// CreatePayment creates a gateway order once per booking. The gateway call runs
// outside any transaction; a concurrent caller that attaches first wins.
func (uc *paymentUseCaseImpl) CreatePayment(ctx context.Context, bookingID uuid.UUID, actor Actor) (*PaymentOrderResult, error) {
	var (
		amount   int64
		existing *string
	)
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := loadBooking(ctx, tx, bookingID, actor)
		if err != nil {
			return err
		}
		if err := b.EnsurePayable(actor.UserID); err != nil {
			return classifyDomainErr(err)
		}
		amount = b.Total().Minor()
		existing = b.OrderRef()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return uc.orderResult(*existing, amount), nil
	}

	order, err := uc.gateway.CreateOrder(ctx, shared.OrderRequest{
		AmountMinor: amount,
		Currency:    uc.gateway.Currency(),
		Receipt:     bookingID.String(),
		Notes:       map[string]string{"booking_id": bookingID.String()},
	})
	if err != nil {
		return nil, err
	}

	orderRef := order.ID
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := loadBooking(ctx, tx, bookingID, actor)
		if err != nil {
			return err
		}
		if err := b.EnsurePayable(actor.UserID); err != nil {
			return classifyDomainErr(err)
		}
		if ref := b.OrderRef(); ref != nil {
			slog.Warn("discarding gateway order, booking already has one",
				"booking_id", bookingID,
				"order_ref", *ref,
				"discarded_order_ref", order.ID)
			orderRef = *ref
			return nil
		}
		prev := b.State()
		b.AttachPaymentOrder(order.ID, uc.clock.Now())
		return saveTransition(ctx, tx, b, prev)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("payment order attached", "booking_id", bookingID, "order_ref", orderRef, "amount", amount)
	return uc.orderResult(orderRef, amount), nil
}

func (uc *paymentUseCaseImpl) orderResult(orderRef string, amount int64) *PaymentOrderResult {
	return &PaymentOrderResult{
		OrderID:     orderRef,
		AmountMinor: amount,
		Currency:    uc.gateway.Currency(),
		Key:         uc.gateway.PublicKey(),
	}
}

func (uc *paymentUseCaseImpl) VerifyPayment(ctx context.Context, bookingID uuid.UUID, actor Actor, paymentRef, signature string) error {
	return uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := loadBooking(ctx, tx, bookingID, actor)
		if err != nil {
			return err
		}
		if err := b.EnsureVerifiable(actor.UserID); err != nil {
			return classifyDomainErr(err)
		}
		orderRef := *b.OrderRef()

		if err := uc.gateway.VerifyPaymentSignature(orderRef, paymentRef, signature); err != nil {
			if errs.Is(err, shared.ErrSignatureMismatch) {
				return errs.Mark(err, ErrInvalidSignature)
			}
			return err
		}

		if b.IsPaid() {
			return nil
		}
		if b.Status() != booking.StatusConfirmed {
			return errs.Wrapf(ErrInvalidBookingStatus, "cannot verify payment for %s booking", b.Status())
		}

		applied, err := uc.markPaid(ctx, tx, orderRef, paymentRef)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}

		current, err := tx.Bookings().Get(ctx, tx.DB(), bookingID)
		if err != nil {
			return err
		}
		if current.IsPaid() {
			return nil
		}
		return ErrBookingStateConflict
	})
}

func (uc *paymentUseCaseImpl) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (WebhookOutcome, error) {
	if !uc.gateway.WebhookConfigured() {
		return "", shared.ErrWebhookNotConfigured
	}
	if signature == "" {
		return "", ErrMissingSignature
	}
	if err := uc.gateway.VerifyWebhookSignature(rawBody, signature); err != nil {
		if errs.Is(err, shared.ErrSignatureMismatch) {
			return "", errs.Mark(err, ErrInvalidSignature)
		}
		return "", err
	}

	event, err := uc.gateway.ParseWebhookEvent(rawBody)
	if err != nil {
		slog.Warn("ignoring unparseable webhook", "error", err, "body_size", len(rawBody))
		return WebhookIgnored, nil
	}
	if event.Event != shared.WebhookEventPaymentCaptured || event.OrderRef == "" {
		slog.Debug("ignoring webhook event", "event", event.Event)
		return WebhookIgnored, nil
	}

	var outcome WebhookOutcome
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		applied, err := uc.markPaid(ctx, tx, event.OrderRef, event.PaymentRef)
		if err != nil {
			return err
		}
		if applied {
			outcome = WebhookApplied
			return nil
		}

		b, err := tx.Bookings().GetByOrderRef(ctx, tx.DB(), event.OrderRef)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				slog.Warn("webhook for unknown order", "order_ref", event.OrderRef, "payment_ref", event.PaymentRef)
				outcome = WebhookUnknownOrder
				return nil
			}
			return err
		}

		switch {
		case b.IsPaid():
			outcome = WebhookAlreadyPaid
		case b.Status().IsTerminal():
			slog.Error("payment captured for closed booking, needs manual follow-up",
				"order_ref", event.OrderRef,
				"payment_ref", event.PaymentRef,
				"booking_id", b.ID(),
				"status", b.Status().String())
			outcome = WebhookClosedBooking
		default:
			return errs.Newf("webhook for order %s matched no payable booking in status %s", event.OrderRef, b.Status())
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// markPaid applies the conditional paid transition and records its effects.
// It reports false when another request already moved the booking.
func (uc *paymentUseCaseImpl) markPaid(ctx context.Context, tx shared.Tx, orderRef, paymentRef string) (bool, error) {
	now := uc.clock.Now()
	b, err := tx.Bookings().MarkPaidByOrderRef(ctx, tx.DB(), orderRef, paymentRef, now)
	if err != nil {
		return false, err
	}
	if b == nil {
		return false, nil
	}

	name, err := toolName(ctx, tx, b)
	if err != nil {
		return false, err
	}
	err = recordEffects(ctx, tx, now, b, "paid",
		notice{
			userID:  b.RenterID(),
			kind:    notification.TypePayment,
			title:   "Payment Successful",
			message: fmt.Sprintf("Payment for %s was successful. Your booking is active!", name),
		},
		notice{
			userID:  b.OwnerID(),
			kind:    notification.TypePayment,
			title:   "Payment Received",
			message: fmt.Sprintf("Payment received for booking %s", b.ID()),
		},
	)
	if err != nil {
		return false, err
	}

	slog.Info("booking paid", "booking_id", b.ID(), "order_ref", orderRef, "payment_ref", paymentRef)
	return true, nil
}
