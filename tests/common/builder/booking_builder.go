//go:build unit || e2e

package builder

import (
	"time"

	"toolrental/internal/domain/booking"
	reqdto "toolrental/internal/handler/dto/request"
	"toolrental/internal/infra/repository/converter"
	"toolrental/internal/pkg/clock"
	"toolrental/internal/usecase/commands"
	"toolrental/internal/usecase/queries"
	"toolrental/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// FixedNow is the reference instant every builder defaults around.
var FixedNow = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

type BookingBuilder struct {
	ID                uuid.UUID
	RenterID          uuid.UUID
	OwnerID           uuid.UUID
	ShopID            uuid.UUID
	ToolID            uuid.UUID
	ToolName          string
	Quantity          int
	QuantityAvailable int
	IsAvailable       bool
	Now               time.Time
	StartTime         time.Time
	EndTime           time.Time
	PricePerHour      int64
	PricePerDay       *int64
	PricePerWeek      *int64
	ToolDeposit       int64
	RentalPrice       *int64
	DepositAmount     *int64
	PaymentMethod     booking.PaymentMethod
	Status            booking.Status
	PaymentStatus     booking.PaymentStatus
	OrderRef          *string
	PaymentRef        *string
	PickupTime        *time.Time
	ReturnTime        *time.Time
	Notes             string
}

func NewBookingBuilder() *BookingBuilder {
	start := FixedNow.Add(24 * time.Hour)
	return &BookingBuilder{
		ID:                uuid.New(),
		RenterID:          uuid.New(),
		OwnerID:           uuid.New(),
		ShopID:            uuid.New(),
		ToolID:            uuid.New(),
		ToolName:          "Cordless Drill",
		Quantity:          1,
		QuantityAvailable: 3,
		IsAvailable:       true,
		Now:               FixedNow,
		StartTime:         start,
		EndTime:           start.Add(5 * time.Hour),
		PricePerHour:      10000,
		ToolDeposit:       50000,
		PaymentMethod:     booking.PaymentMethodGateway,
		Status:            booking.StatusPending,
		PaymentStatus:     booking.PaymentPending,
		Notes:             "need it for the weekend",
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

// Confirmed, Active and Paid move the builder to common lifecycle points.
func (b *BookingBuilder) Confirmed() *BookingBuilder {
	b.Status = booking.StatusConfirmed
	return b
}

func (b *BookingBuilder) WithOrder(orderRef string) *BookingBuilder {
	b.OrderRef = &orderRef
	return b
}

func (b *BookingBuilder) Paid(paymentRef string) *BookingBuilder {
	b.Status = booking.StatusActive
	b.PaymentStatus = booking.PaymentPaid
	b.PaymentRef = &paymentRef
	if b.OrderRef == nil {
		b.WithOrder("order_" + b.ID.String()[:8])
	}
	return b
}

func (b *BookingBuilder) Services() *booking.Services {
	return &booking.Services{
		Clock:           clock.NewMockClock(b.Now),
		PriceCalculator: booking.NewDefaultPriceCalculator(),
	}
}

func (b *BookingBuilder) BuildToolSpec() booking.ToolSpec {
	return booking.ToolSpec{
		ID:                b.ToolID,
		ShopID:            b.ShopID,
		OwnerID:           b.OwnerID,
		IsAvailable:       b.IsAvailable,
		QuantityAvailable: b.QuantityAvailable,
		Rates: booking.Rates{
			PerHour: booking.MustMoney(b.PricePerHour),
			PerDay:  moneyPtr(b.PricePerDay),
			PerWeek: moneyPtr(b.PricePerWeek),
		},
		Deposit: booking.MustMoney(b.ToolDeposit),
	}
}

func (b *BookingBuilder) BuildToolSnapshot() *shared.ToolSnapshot {
	return &shared.ToolSnapshot{
		ID:                b.ToolID,
		ShopID:            b.ShopID,
		OwnerID:           b.OwnerID,
		Name:              b.ToolName,
		PricePerHour:      b.PricePerHour,
		PricePerDay:       b.PricePerDay,
		PricePerWeek:      b.PricePerWeek,
		DepositAmount:     b.ToolDeposit,
		QuantityTotal:     b.QuantityAvailable,
		QuantityAvailable: b.QuantityAvailable,
		IsAvailable:       b.IsAvailable,
	}
}

// BuildDomain goes through the same constructor a new booking request does.
func (b *BookingBuilder) BuildDomain() (*booking.Booking, error) {
	period, err := booking.NewRentalPeriod(b.StartTime, b.EndTime)
	if err != nil {
		return nil, err
	}
	notes, err := booking.NewNote(b.Notes)
	if err != nil {
		return nil, err
	}
	return booking.NewBooking(
		b.Services(),
		b.BuildToolSpec(),
		b.RenterID,
		period,
		b.Quantity,
		booking.Pricing{RentalPrice: moneyPtr(b.RentalPrice), Deposit: moneyPtr(b.DepositAmount)},
		b.PaymentMethod,
		notes,
	)
}

// BuildStored rebuilds a booking in whatever lifecycle state the builder holds.
func (b *BookingBuilder) BuildStored() *booking.Booking {
	period, err := booking.NewRentalPeriod(b.StartTime, b.EndTime)
	if err != nil {
		panic(err)
	}
	rental, deposit, total := b.amounts(period)
	return booking.ReconstructBooking(booking.Snapshot{
		ID:            b.ID,
		RenterID:      b.RenterID,
		ToolID:        b.ToolID,
		ShopID:        b.ShopID,
		OwnerID:       b.OwnerID,
		Quantity:      b.Quantity,
		Period:        period,
		RentalPrice:   rental,
		Deposit:       deposit,
		Total:         total,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		PaymentMethod: b.PaymentMethod,
		OrderRef:      b.OrderRef,
		PaymentRef:    b.PaymentRef,
		PickupTime:    b.PickupTime,
		ReturnTime:    b.ReturnTime,
		Notes:         mustNote(b.Notes),
		CreatedAt:     b.Now,
		UpdatedAt:     b.Now,
	})
}

func (b *BookingBuilder) BuildRow() converter.BookingRow {
	period, err := booking.NewRentalPeriod(b.StartTime, b.EndTime)
	if err != nil {
		panic(err)
	}
	rental, deposit, total := b.amounts(period)
	return converter.BookingRow{
		ID:            b.ID,
		RenterID:      b.RenterID,
		ToolID:        b.ToolID,
		ShopID:        b.ShopID,
		OwnerID:       b.OwnerID,
		Quantity:      int32(b.Quantity), // #nosec G115 -- test data
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		RentalPrice:   rental.Minor(),
		DepositAmount: deposit.Minor(),
		TotalAmount:   total.Minor(),
		Status:        b.Status.String(),
		PaymentStatus: b.PaymentStatus.String(),
		PaymentMethod: b.PaymentMethod.String(),
		OrderRef:      textOf(b.OrderRef),
		PaymentRef:    textOf(b.PaymentRef),
		PickupTime:    timestamptzOf(b.PickupTime),
		ReturnTime:    timestamptzOf(b.ReturnTime),
		Notes:         b.Notes,
		CreatedAt:     b.Now,
		UpdatedAt:     b.Now,
	}
}

// RowValues lists BuildRow in the column order of converter.BookingColumns.
func (b *BookingBuilder) RowValues() []any {
	r := b.BuildRow()
	return []any{
		r.ID, r.RenterID, r.ToolID, r.ShopID, r.OwnerID, r.Quantity,
		r.StartTime, r.EndTime, r.RentalPrice, r.DepositAmount, r.TotalAmount,
		r.Status, r.PaymentStatus, r.PaymentMethod, r.OrderRef, r.PaymentRef,
		r.PickupTime, r.ReturnTime, r.Notes, r.CreatedAt, r.UpdatedAt,
	}
}

func (b *BookingBuilder) BuildView() *queries.BookingView {
	period, err := booking.NewRentalPeriod(b.StartTime, b.EndTime)
	if err != nil {
		panic(err)
	}
	rental, deposit, total := b.amounts(period)
	return &queries.BookingView{
		ID:            b.ID,
		RenterID:      b.RenterID,
		RenterEmail:   "renter@example.com",
		ToolID:        b.ToolID,
		ToolName:      b.ToolName,
		ShopID:        b.ShopID,
		ShopName:      "Corner Hardware",
		OwnerID:       b.OwnerID,
		Quantity:      b.Quantity,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		DurationHours: period.DurationHours(),
		RentalPrice:   rental.Minor(),
		DepositAmount: deposit.Minor(),
		TotalAmount:   total.Minor(),
		Status:        b.Status.String(),
		PaymentStatus: b.PaymentStatus.String(),
		PaymentMethod: b.PaymentMethod.String(),
		OrderRef:      b.OrderRef,
		PaymentRef:    b.PaymentRef,
		PickupTime:    b.PickupTime,
		ReturnTime:    b.ReturnTime,
		Notes:         b.Notes,
		CreatedAt:     b.Now,
		UpdatedAt:     b.Now,
	}
}

func (b *BookingBuilder) BuildCreateInput() commands.CreateBookingInput {
	return commands.CreateBookingInput{
		ToolID:        b.ToolID,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Quantity:      b.Quantity,
		RentalPrice:   b.RentalPrice,
		DepositAmount: b.DepositAmount,
		PaymentMethod: b.PaymentMethod.String(),
		Notes:         b.Notes,
	}
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	notes := b.Notes
	req := reqdto.CreateBookingRequest{
		ToolID:        b.ToolID,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Quantity:      b.Quantity,
		PaymentMethod: b.PaymentMethod.String(),
		Notes:         &notes,
	}
	if b.RentalPrice != nil {
		s := booking.MustMoney(*b.RentalPrice).String()
		req.RentalPrice = &s
	}
	if b.DepositAmount != nil {
		s := booking.MustMoney(*b.DepositAmount).String()
		req.DepositAmount = &s
	}
	return req
}

func (b *BookingBuilder) amounts(period booking.RentalPeriod) (rental, deposit, total booking.Money) {
	if b.RentalPrice != nil {
		rental = booking.MustMoney(*b.RentalPrice)
	} else {
		quoted, err := booking.NewDefaultPriceCalculator().QuoteRentalPrice(b.BuildToolSpec().Rates, period.DurationHours())
		if err != nil {
			panic(err)
		}
		rental = quoted
	}
	deposit = booking.MustMoney(b.ToolDeposit)
	if b.DepositAmount != nil {
		deposit = booking.MustMoney(*b.DepositAmount)
	}
	total, err := booking.CalculateTotal(rental, b.Quantity, deposit)
	if err != nil {
		panic(err)
	}
	return rental, deposit, total
}

func moneyPtr(minor *int64) *booking.Money {
	if minor == nil {
		return nil
	}
	m := booking.MustMoney(*minor)
	return &m
}

func mustNote(s string) booking.Note {
	n, err := booking.NewNote(s)
	if err != nil {
		panic(err)
	}
	return n
}

func textOf(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func timestamptzOf(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
