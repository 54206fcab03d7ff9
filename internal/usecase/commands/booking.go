package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"toolrental/internal/domain/booking"
	"toolrental/internal/domain/notification"
	"toolrental/internal/infra"
	"toolrental/internal/pkg/clock"
	"toolrental/internal/pkg/errs"
	"toolrental/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	createBookingEndpoint = "POST /api/bookings"
	idempotencyKeyTTL     = 24 * time.Hour
	releaseKeyTimeout     = 5 * time.Second
)

type BookingCommands interface {
	CreateBooking(ctx context.Context, in CreateBookingInput, actor Actor, idempotencyKey *uuid.UUID) (*CreateBookingResult, error)
	ConfirmBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error
	CancelBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error
	PickupBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error
	ReturnBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error
}

type bookingUseCaseImpl struct {
	uow      shared.UnitOfWork
	clock    clock.Clock
	services *booking.Services
}

func NewBookingUseCase(uow shared.UnitOfWork, clk clock.Clock, priceCalculator booking.PriceCalculator) BookingCommands {
	return &bookingUseCaseImpl{
		uow:   uow,
		clock: clk,
		services: &booking.Services{
			Clock:           clk,
			PriceCalculator: priceCalculator,
		},
	}
}

func (uc *bookingUseCaseImpl) CreateBooking(
	ctx context.Context,
	in CreateBookingInput,
	actor Actor,
	idempotencyKey *uuid.UUID,
) (*CreateBookingResult, error) {
	if idempotencyKey == nil {
		id, err := uc.createBooking(ctx, in, actor, nil, "")
		if err != nil {
			return nil, err
		}
		return &CreateBookingResult{BookingID: id}, nil
	}

	requestHash := calculateRequestHash(in)
	replayID, err := uc.claimIdempotencyKey(ctx, *idempotencyKey, actor.UserID, requestHash)
	if err != nil {
		return nil, err
	}
	if replayID != nil {
		return &CreateBookingResult{BookingID: *replayID, IsReplayed: true}, nil
	}

	id, err := uc.createBooking(ctx, in, actor, idempotencyKey, requestHash)
	if err != nil {
		uc.releaseIdempotencyKey(ctx, *idempotencyKey, actor.UserID)
		return nil, err
	}
	return &CreateBookingResult{BookingID: id}, nil
}

// claimIdempotencyKey returns the stored booking id when the request is a replay.
func (uc *bookingUseCaseImpl) claimIdempotencyKey(ctx context.Context, key, userID uuid.UUID, requestHash string) (*uuid.UUID, error) {
	var replayID *uuid.UUID
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		claimed, err := tx.Idempotency().TryInsert(ctx, tx.DB(), key, userID, createBookingEndpoint, requestHash, uc.clock.Now().Add(idempotencyKeyTTL))
		if err != nil {
			return err
		}
		if claimed {
			return nil
		}

		existing, err := tx.Reads().IdempotencyByKey(ctx, key, userID)
		if err != nil {
			return err
		}
		if existing.RequestHash != requestHash {
			return ErrIdempotencyKeyReused
		}

		switch existing.Status {
		case shared.IdempotencyStatusCompleted:
			if existing.ResultBookingID == nil {
				return errs.New("completed request missing result booking ID")
			}
			replayID = existing.ResultBookingID
			return nil
		case shared.IdempotencyStatusProcessing:
			return ErrIdempotencyInProgress
		default:
			return errs.Newf("invalid idempotency key status %q", existing.Status)
		}
	})
	if err != nil {
		return nil, err
	}
	return replayID, nil
}

// releaseIdempotencyKey outlives the request context so a disconnected client
// does not leave the key stuck in processing.
func (uc *bookingUseCaseImpl) releaseIdempotencyKey(ctx context.Context, key, userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseKeyTimeout)
	defer cancel()

	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Idempotency().Delete(ctx, tx.DB(), key, userID)
	})
	if err != nil {
		slog.Warn("failed to release idempotency key", "key", key, "error", err)
	}
}

func (uc *bookingUseCaseImpl) createBooking(
	ctx context.Context,
	in CreateBookingInput,
	actor Actor,
	idempotencyKey *uuid.UUID,
	requestHash string,
) (uuid.UUID, error) {
	period, err := booking.NewRentalPeriod(in.StartTime, in.EndTime)
	if err != nil {
		return uuid.Nil, classifyDomainErr(err)
	}
	method, err := booking.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return uuid.Nil, classifyDomainErr(err)
	}
	notes, err := booking.NewNote(in.Notes)
	if err != nil {
		return uuid.Nil, classifyDomainErr(err)
	}
	pricing, err := toPricing(in)
	if err != nil {
		return uuid.Nil, classifyDomainErr(err)
	}

	var createdID uuid.UUID
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		tool, err := tx.Reads().ToolByID(ctx, in.ToolID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrToolNotFound
			}
			return err
		}

		b, err := booking.NewBooking(uc.services, toToolSpec(tool), actor.UserID, period, in.Quantity, pricing, method, notes)
		if err != nil {
			return classifyDomainErr(err)
		}

		if err := tx.Tools().Reserve(ctx, tx.DB(), tool.ID, b.Quantity()); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return errs.Mark(err, ErrInsufficientInventory)
			}
			return err
		}

		id, err := tx.Bookings().Create(ctx, tx.DB(), b)
		if err != nil {
			return err
		}

		if err := recordEffects(ctx, tx, b.CreatedAt(), b, "created", notice{
			userID:  b.OwnerID(),
			kind:    notification.TypeBooking,
			title:   "New Booking Request",
			message: fmt.Sprintf("New booking request for %s (quantity %d) from %s to %s.", tool.Name, b.Quantity(), period.Start().Format(time.RFC3339), period.End().Format(time.RFC3339)),
		}); err != nil {
			return err
		}

		if idempotencyKey != nil {
			if err := tx.Idempotency().UpdateStatusCompleted(ctx, tx.DB(), *idempotencyKey, actor.UserID, calculateIDHash(id), id); err != nil {
				return err
			}
		}
		createdID = id
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	slog.Info("booking created",
		"booking_id", createdID,
		"tool_id", in.ToolID,
		"renter_id", actor.UserID,
		"quantity", in.Quantity,
		"request_hash", requestHash)
	return createdID, nil
}

func (uc *bookingUseCaseImpl) ConfirmBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error {
	return uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := loadBooking(ctx, tx, bookingID, actor)
		if err != nil {
			return err
		}
		prev := b.State()
		now := uc.clock.Now()
		if err := b.Confirm(actor.UserID, now); err != nil {
			return classifyDomainErr(err)
		}
		if err := saveTransition(ctx, tx, b, prev); err != nil {
			return err
		}

		name, err := toolName(ctx, tx, b)
		if err != nil {
			return err
		}
		message := fmt.Sprintf("Your booking for %s has been confirmed. Please complete payment to activate it.", name)
		if b.PaymentMethod() == booking.PaymentMethodPayOnReturn {
			message = fmt.Sprintf("Your booking for %s has been confirmed. Payment is due when you return the tool.", name)
		}
		return recordEffects(ctx, tx, now, b, "confirmed", notice{
			userID:  b.RenterID(),
			kind:    notification.TypeBooking,
			title:   "Booking Confirmed",
			message: message,
		})
	})
}

func (uc *bookingUseCaseImpl) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error {
	return uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := loadBooking(ctx, tx, bookingID, actor)
		if err != nil {
			return err
		}
		prev := b.State()
		now := uc.clock.Now()
		if err := b.Cancel(actor.UserID, now); err != nil {
			return classifyDomainErr(err)
		}
		if err := saveTransition(ctx, tx, b, prev); err != nil {
			return err
		}
		if err := tx.Tools().Release(ctx, tx.DB(), b.ToolID(), b.Quantity()); err != nil {
			return err
		}

		name, err := toolName(ctx, tx, b)
		if err != nil {
			return err
		}
		nt := notice{
			userID:  b.OwnerID(),
			kind:    notification.TypeBooking,
			title:   "Booking Cancelled",
			message: fmt.Sprintf("The booking for %s was cancelled by the renter.", name),
		}
		if b.IsOwner(actor.UserID) {
			nt = notice{
				userID:  b.RenterID(),
				kind:    notification.TypeBooking,
				title:   "Booking Cancelled",
				message: fmt.Sprintf("Your booking for %s was cancelled by the shop.", name),
			}
		}
		return recordEffects(ctx, tx, now, b, "cancelled", nt)
	})
}

func (uc *bookingUseCaseImpl) PickupBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error {
	return uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := loadBooking(ctx, tx, bookingID, actor)
		if err != nil {
			return err
		}
		prev := b.State()
		now := uc.clock.Now()
		if err := b.Pickup(actor.UserID, now); err != nil {
			return classifyDomainErr(err)
		}
		if err := saveTransition(ctx, tx, b, prev); err != nil {
			return err
		}
		return recordEffects(ctx, tx, now, b, "picked_up")
	})
}

func (uc *bookingUseCaseImpl) ReturnBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error {
	return uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := loadBooking(ctx, tx, bookingID, actor)
		if err != nil {
			return err
		}
		prev := b.State()
		now := uc.clock.Now()
		if err := b.Return(actor.UserID, now); err != nil {
			return classifyDomainErr(err)
		}
		if err := saveTransition(ctx, tx, b, prev); err != nil {
			return err
		}
		if err := tx.Tools().Release(ctx, tx.DB(), b.ToolID(), b.Quantity()); err != nil {
			return err
		}
		return recordEffects(ctx, tx, now, b, "returned")
	})
}

func toToolSpec(t *shared.ToolSnapshot) booking.ToolSpec {
	rates := booking.Rates{PerHour: booking.MustMoney(max(t.PricePerHour, 0))}
	if t.PricePerDay != nil {
		m := booking.MustMoney(max(*t.PricePerDay, 0))
		rates.PerDay = &m
	}
	if t.PricePerWeek != nil {
		m := booking.MustMoney(max(*t.PricePerWeek, 0))
		rates.PerWeek = &m
	}
	return booking.ToolSpec{
		ID:                t.ID,
		ShopID:            t.ShopID,
		OwnerID:           t.OwnerID,
		IsAvailable:       t.IsAvailable,
		QuantityAvailable: t.QuantityAvailable,
		Rates:             rates,
		Deposit:           booking.MustMoney(max(t.DepositAmount, 0)),
	}
}

func toPricing(in CreateBookingInput) (booking.Pricing, error) {
	var p booking.Pricing
	if in.RentalPrice != nil {
		m, err := booking.NewMoney(*in.RentalPrice)
		if err != nil {
			return booking.Pricing{}, err
		}
		p.RentalPrice = &m
	}
	if in.DepositAmount != nil {
		m, err := booking.NewMoney(*in.DepositAmount)
		if err != nil {
			return booking.Pricing{}, err
		}
		p.Deposit = &m
	}
	return p, nil
}

func calculateRequestHash(in CreateBookingInput) string {
	data, _ := json.Marshal(in)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func calculateIDHash(id uuid.UUID) string {
	hash := sha256.Sum256([]byte(id.String()))
	return hex.EncodeToString(hash[:])
}
