package booking

import (
	"errors"
	"fmt"
	"time"

	"toolrental/internal/pkg/clock"
	"toolrental/internal/pkg/patch"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus         = errors.New("invalid booking status")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrInvalidQuantity       = errors.New("quantity must be at least 1")
	ErrNotesTooLong          = errors.New("notes too long")
	ErrStartInPast           = errors.New("start time must not be in the past")
	ErrSelfBooking           = errors.New("cannot book your own tool")
	ErrToolUnavailable       = errors.New("tool is not available")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidTransition     = errors.New("invalid booking transition")
	ErrNotShopOwner          = errors.New("only the shop owner can perform this action")
	ErrNotRenter             = errors.New("only the renter can perform this action")
	ErrNotBookingParty       = errors.New("not a party to this booking")
	ErrAlreadyPaid           = errors.New("booking is already paid")
	ErrPaymentMethodMismatch = errors.New("booking does not use gateway payment")
	ErrPaymentOrderMissing   = errors.New("no payment order has been created for this booking")
	ErrAlreadyPickedUp       = errors.New("tool has already been picked up")
)

type ToolSpec struct {
	ID                uuid.UUID
	ShopID            uuid.UUID
	OwnerID           uuid.UUID
	IsAvailable       bool
	QuantityAvailable int
	Rates             Rates
	Deposit           Money
}

// Pricing carries caller-supplied amounts; nil fields fall back to the tool's rates.
type Pricing struct {
	RentalPrice *Money
	Deposit     *Money
}

type Services struct {
	Clock           clock.Clock
	PriceCalculator PriceCalculator
}

type Booking struct {
	id            uuid.UUID
	renterID      uuid.UUID
	toolID        uuid.UUID
	shopID        uuid.UUID
	ownerID       uuid.UUID
	quantity      int
	period        RentalPeriod
	rentalPrice   Money
	deposit       Money
	total         Money
	status        Status
	paymentStatus PaymentStatus
	paymentMethod PaymentMethod
	orderRef      *string
	paymentRef    *string
	pickupTime    *time.Time
	returnTime    *time.Time
	notes         Note
	createdAt     time.Time
	updatedAt     time.Time
}

func NewBooking(
	services *Services,
	tool ToolSpec,
	renterID uuid.UUID,
	period RentalPeriod,
	quantity int,
	pricing Pricing,
	method PaymentMethod,
	notes Note,
) (*Booking, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if !method.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}
	if renterID == tool.OwnerID {
		return nil, ErrSelfBooking
	}
	if !tool.IsAvailable {
		return nil, ErrToolUnavailable
	}
	if quantity > tool.QuantityAvailable {
		return nil, ErrInsufficientInventory
	}

	now := services.Clock.Now()
	if period.Start().Before(now) {
		return nil, ErrStartInPast
	}

	var rentalPrice Money
	if pricing.RentalPrice != nil {
		rentalPrice = *pricing.RentalPrice
	} else {
		quoted, err := services.PriceCalculator.QuoteRentalPrice(tool.Rates, period.DurationHours())
		if err != nil {
			return nil, err
		}
		rentalPrice = quoted
	}
	deposit := patch.Coalesce(pricing.Deposit, tool.Deposit)
	total, err := CalculateTotal(rentalPrice, quantity, deposit)
	if err != nil {
		return nil, err
	}

	return &Booking{
		id:            uuid.New(),
		renterID:      renterID,
		toolID:        tool.ID,
		shopID:        tool.ShopID,
		ownerID:       tool.OwnerID,
		quantity:      quantity,
		period:        period,
		rentalPrice:   rentalPrice,
		deposit:       deposit,
		total:         total,
		status:        StatusPending,
		paymentStatus: PaymentPending,
		paymentMethod: method,
		notes:         notes,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

type Snapshot struct {
	ID            uuid.UUID
	RenterID      uuid.UUID
	ToolID        uuid.UUID
	ShopID        uuid.UUID
	OwnerID       uuid.UUID
	Quantity      int
	Period        RentalPeriod
	RentalPrice   Money
	Deposit       Money
	Total         Money
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	OrderRef      *string
	PaymentRef    *string
	PickupTime    *time.Time
	ReturnTime    *time.Time
	Notes         Note
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func ReconstructBooking(s Snapshot) *Booking {
	return &Booking{
		id:            s.ID,
		renterID:      s.RenterID,
		toolID:        s.ToolID,
		shopID:        s.ShopID,
		ownerID:       s.OwnerID,
		quantity:      s.Quantity,
		period:        s.Period,
		rentalPrice:   s.RentalPrice,
		deposit:       s.Deposit,
		total:         s.Total,
		status:        s.Status,
		paymentStatus: s.PaymentStatus,
		paymentMethod: s.PaymentMethod,
		orderRef:      s.OrderRef,
		paymentRef:    s.PaymentRef,
		pickupTime:    s.PickupTime,
		returnTime:    s.ReturnTime,
		notes:         s.Notes,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
	}
}

func (b *Booking) IsOwner(userID uuid.UUID) bool  { return b.ownerID == userID }
func (b *Booking) IsRenter(userID uuid.UUID) bool { return b.renterID == userID }
func (b *Booking) IsParty(userID uuid.UUID) bool  { return b.IsOwner(userID) || b.IsRenter(userID) }
func (b *Booking) IsPaid() bool                   { return b.paymentStatus == PaymentPaid }

func (b *Booking) State() State {
	return State{
		Status:        b.status,
		PaymentStatus: b.paymentStatus,
		OrderRef:      b.orderRef,
		PickedUp:      b.pickupTime != nil,
	}
}

func (b *Booking) transition(next Status, at time.Time) error {
	if !b.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.status, next)
	}
	b.status = next
	b.updatedAt = at
	return nil
}

func (b *Booking) Confirm(actorID uuid.UUID, at time.Time) error {
	if !b.IsOwner(actorID) {
		return ErrNotShopOwner
	}
	if b.status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.status, StatusConfirmed)
	}
	return b.transition(StatusConfirmed, at)
}

// Cancel leaves the quantity to be released by the caller.
func (b *Booking) Cancel(actorID uuid.UUID, at time.Time) error {
	if !b.IsParty(actorID) {
		return ErrNotBookingParty
	}
	return b.transition(StatusCancelled, at)
}

// EnsurePayable checks that a gateway order may be requested for this booking.
func (b *Booking) EnsurePayable(actorID uuid.UUID) error {
	if !b.IsParty(actorID) {
		return ErrNotBookingParty
	}
	if b.paymentMethod != PaymentMethodGateway {
		return ErrPaymentMethodMismatch
	}
	if b.IsPaid() {
		return ErrAlreadyPaid
	}
	if b.status != StatusConfirmed {
		return fmt.Errorf("%w: payment requires %s, booking is %s", ErrInvalidTransition, StatusConfirmed, b.status)
	}
	return nil
}

func (b *Booking) AttachPaymentOrder(orderRef string, at time.Time) {
	b.orderRef = &orderRef
	b.updatedAt = at
}

// EnsureVerifiable checks the preconditions for a client-reported payment.
func (b *Booking) EnsureVerifiable(actorID uuid.UUID) error {
	if !b.IsRenter(actorID) {
		return ErrNotRenter
	}
	if b.orderRef == nil || *b.orderRef == "" {
		return ErrPaymentOrderMissing
	}
	return nil
}

// AcceptsPayment reports whether a captured payment may move this booking to paid.
func (b *Booking) AcceptsPayment() error {
	if b.IsPaid() {
		return ErrAlreadyPaid
	}
	if b.status != StatusConfirmed && b.status != StatusActive {
		return fmt.Errorf("%w: cannot mark %s booking as paid", ErrInvalidTransition, b.status)
	}
	return nil
}

func (b *Booking) MarkPaid(paymentRef string, at time.Time) error {
	if err := b.AcceptsPayment(); err != nil {
		return err
	}
	b.paymentStatus = PaymentPaid
	b.paymentRef = &paymentRef
	b.status = StatusActive
	b.updatedAt = at
	return nil
}

func (b *Booking) Pickup(actorID uuid.UUID, at time.Time) error {
	if !b.IsOwner(actorID) {
		return ErrNotShopOwner
	}
	if b.pickupTime != nil {
		return ErrAlreadyPickedUp
	}

	switch b.paymentMethod {
	case PaymentMethodPayOnReturn:
		if err := b.transition(StatusActive, at); err != nil {
			return err
		}
	default:
		if b.status != StatusActive || !b.IsPaid() {
			return fmt.Errorf("%w: pickup requires a paid active booking, booking is %s/%s", ErrInvalidTransition, b.status, b.paymentStatus)
		}
		b.updatedAt = at
	}

	b.pickupTime = &at
	return nil
}

// Return leaves the quantity to be released by the caller.
func (b *Booking) Return(actorID uuid.UUID, at time.Time) error {
	if !b.IsOwner(actorID) {
		return ErrNotShopOwner
	}
	if err := b.transition(StatusReturned, at); err != nil {
		return err
	}
	b.returnTime = &at
	if b.paymentMethod == PaymentMethodPayOnReturn && b.paymentStatus == PaymentPending {
		b.paymentStatus = PaymentPaid
	}
	return nil
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) RenterID() uuid.UUID          { return b.renterID }
func (b *Booking) ToolID() uuid.UUID            { return b.toolID }
func (b *Booking) ShopID() uuid.UUID            { return b.shopID }
func (b *Booking) OwnerID() uuid.UUID           { return b.ownerID }
func (b *Booking) Quantity() int                { return b.quantity }
func (b *Booking) Period() RentalPeriod         { return b.period }
func (b *Booking) DurationHours() int           { return b.period.DurationHours() }
func (b *Booking) RentalPrice() Money           { return b.rentalPrice }
func (b *Booking) Deposit() Money               { return b.deposit }
func (b *Booking) Total() Money                 { return b.total }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) PaymentMethod() PaymentMethod { return b.paymentMethod }
func (b *Booking) OrderRef() *string            { return b.orderRef }
func (b *Booking) PaymentRef() *string          { return b.paymentRef }
func (b *Booking) PickupTime() *time.Time       { return b.pickupTime }
func (b *Booking) ReturnTime() *time.Time       { return b.returnTime }
func (b *Booking) Notes() Note                  { return b.notes }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }
