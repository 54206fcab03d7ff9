package converter

import (
	"fmt"
	"time"

	"toolrental/internal/domain/booking"
	"toolrental/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// BookingColumns is the select list matching BookingRow.Targets. It expects
// bookings aliased as b and shops aliased as s.
const BookingColumns = `b.id, b.renter_id, b.tool_id, b.shop_id, s.owner_id, b.quantity,
	b.start_time, b.end_time, b.rental_price, b.deposit_amount, b.total_amount,
	b.status, b.payment_status, b.payment_method, b.order_ref, b.payment_ref,
	b.pickup_time, b.return_time, b.notes, b.created_at, b.updated_at`

type BookingRow struct {
	ID            uuid.UUID
	RenterID      uuid.UUID
	ToolID        uuid.UUID
	ShopID        uuid.UUID
	OwnerID       uuid.UUID
	Quantity      int32
	StartTime     time.Time
	EndTime       time.Time
	RentalPrice   int64
	DepositAmount int64
	TotalAmount   int64
	Status        string
	PaymentStatus string
	PaymentMethod string
	OrderRef      pgtype.Text
	PaymentRef    pgtype.Text
	PickupTime    pgtype.Timestamptz
	ReturnTime    pgtype.Timestamptz
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *BookingRow) Targets() []any {
	return []any{
		&r.ID, &r.RenterID, &r.ToolID, &r.ShopID, &r.OwnerID, &r.Quantity,
		&r.StartTime, &r.EndTime, &r.RentalPrice, &r.DepositAmount, &r.TotalAmount,
		&r.Status, &r.PaymentStatus, &r.PaymentMethod, &r.OrderRef, &r.PaymentRef,
		&r.PickupTime, &r.ReturnTime, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
	}
}

func BookingToDomain(r BookingRow) (*booking.Booking, error) {
	period, err := booking.NewRentalPeriod(r.StartTime, r.EndTime)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", r.ID, err)
	}
	status, err := booking.ParseStatus(r.Status)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", r.ID, err)
	}
	paymentStatus := booking.PaymentStatus(r.PaymentStatus)
	if !paymentStatus.IsValid() {
		return nil, fmt.Errorf("booking %s: invalid payment status %q", r.ID, r.PaymentStatus)
	}
	method, err := booking.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", r.ID, err)
	}
	rentalPrice, err := booking.NewMoney(r.RentalPrice)
	if err != nil {
		return nil, fmt.Errorf("booking %s rental price: %w", r.ID, err)
	}
	deposit, err := booking.NewMoney(r.DepositAmount)
	if err != nil {
		return nil, fmt.Errorf("booking %s deposit: %w", r.ID, err)
	}
	total, err := booking.NewMoney(r.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("booking %s total: %w", r.ID, err)
	}
	notes, err := booking.NewNote(r.Notes)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", r.ID, err)
	}

	return booking.ReconstructBooking(booking.Snapshot{
		ID:            r.ID,
		RenterID:      r.RenterID,
		ToolID:        r.ToolID,
		ShopID:        r.ShopID,
		OwnerID:       r.OwnerID,
		Quantity:      int(r.Quantity),
		Period:        period,
		RentalPrice:   rentalPrice,
		Deposit:       deposit,
		Total:         total,
		Status:        status,
		PaymentStatus: paymentStatus,
		PaymentMethod: method,
		OrderRef:      pgconv.StringPtrFromPgtype(r.OrderRef),
		PaymentRef:    pgconv.StringPtrFromPgtype(r.PaymentRef),
		PickupTime:    pgconv.TimePtrFromPgtype(r.PickupTime),
		ReturnTime:    pgconv.TimePtrFromPgtype(r.ReturnTime),
		Notes:         notes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}), nil
}

// BookingInsertArgs follows the column order of the repository's INSERT.
func BookingInsertArgs(b *booking.Booking) []any {
	period := b.Period()
	return []any{
		b.ID(),
		b.RenterID(),
		b.ToolID(),
		b.ShopID(),
		int32(b.Quantity()), // #nosec G115 -- quantity is bounded by tool stock
		period.Start(),
		period.End(),
		int32(b.DurationHours()), // #nosec G115 -- rental periods are far below int32 hours
		b.RentalPrice().Minor(),
		b.Deposit().Minor(),
		b.Total().Minor(),
		b.Status().String(),
		b.PaymentStatus().String(),
		b.PaymentMethod().String(),
		b.Notes().String(),
		b.CreatedAt(),
		b.UpdatedAt(),
	}
}
