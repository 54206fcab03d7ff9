package repository

import (
	"context"
	"time"

	"toolrental/internal/domain/booking"
	"toolrental/internal/infra"
	"toolrental/internal/infra/db"
	"toolrental/internal/infra/repository/converter"
	"toolrental/internal/pkg/pgconv"

	"github.com/google/uuid"
)

const (
	createBookingQuery = `INSERT INTO bookings (
	id, renter_id, tool_id, shop_id, quantity, start_time, end_time, duration_hours,
	rental_price, deposit_amount, total_amount, status, payment_status, payment_method,
	notes, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	getBookingQuery = `SELECT ` + converter.BookingColumns + `
FROM bookings b
JOIN shops s ON s.id = b.shop_id
WHERE b.id = $1`

	getBookingByOrderRefQuery = `SELECT ` + converter.BookingColumns + `
FROM bookings b
JOIN shops s ON s.id = b.shop_id
WHERE b.order_ref = $1`

	updateBookingStateQuery = `UPDATE bookings
SET status = $2, payment_status = $3, order_ref = $4, payment_ref = $5,
	pickup_time = $6, return_time = $7, updated_at = $8
WHERE id = $1 AND status = $9 AND payment_status = $10 AND order_ref IS NOT DISTINCT FROM $11
	AND (pickup_time IS NOT NULL) = $12`

	markPaidByOrderRefQuery = `UPDATE bookings b
SET payment_status = 'paid', status = 'active', payment_ref = $2, updated_at = $3
FROM shops s
WHERE s.id = b.shop_id
	AND b.order_ref = $1
	AND b.payment_status <> 'paid'
	AND b.status IN ('confirmed', 'active')
RETURNING ` + converter.BookingColumns
)

type BookingRepository struct{}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{}
}

func (r *BookingRepository) Create(ctx context.Context, tx db.DBTX, b *booking.Booking) (uuid.UUID, error) {
	if _, err := tx.Exec(ctx, createBookingQuery, converter.BookingInsertArgs(b)...); err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create booking", err)
	}
	return b.ID(), nil
}

func (r *BookingRepository) Get(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	return r.getOne(ctx, tx, getBookingQuery, id)
}

func (r *BookingRepository) GetByOrderRef(ctx context.Context, tx db.DBTX, orderRef string) (*booking.Booking, error) {
	return r.getOne(ctx, tx, getBookingByOrderRefQuery, orderRef)
}

func (r *BookingRepository) getOne(ctx context.Context, tx db.DBTX, query string, arg any) (*booking.Booking, error) {
	var row converter.BookingRow
	if err := tx.QueryRow(ctx, query, arg).Scan(row.Targets()...); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get booking", err)
	}

	b, err := converter.BookingToDomain(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to convert booking", err, infra.KindDBFailure)
	}
	return b, nil
}

// UpdateState persists b only if the stored row still has the prev state.
func (r *BookingRepository) UpdateState(ctx context.Context, tx db.DBTX, b *booking.Booking, prev booking.State) error {
	tag, err := tx.Exec(ctx, updateBookingStateQuery,
		b.ID(),
		b.Status().String(),
		b.PaymentStatus().String(),
		pgconv.StringPtrToPgtype(b.OrderRef()),
		pgconv.StringPtrToPgtype(b.PaymentRef()),
		pgconv.TimePtrToPgtype(b.PickupTime()),
		pgconv.TimePtrToPgtype(b.ReturnTime()),
		b.UpdatedAt(),
		prev.Status.String(),
		prev.PaymentStatus.String(),
		pgconv.StringPtrToPgtype(prev.OrderRef),
		prev.PickedUp,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update booking state", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking state changed concurrently", nil, infra.KindConflict)
	}
	return nil
}

// MarkPaidByOrderRef returns nil without error when no unpaid, payable booking
// carries orderRef.
func (r *BookingRepository) MarkPaidByOrderRef(ctx context.Context, tx db.DBTX, orderRef, paymentRef string, at time.Time) (*booking.Booking, error) {
	var row converter.BookingRow
	err := tx.QueryRow(ctx, markPaidByOrderRefQuery, orderRef, paymentRef, at).Scan(row.Targets()...)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to mark booking paid", err)
	}

	b, err := converter.BookingToDomain(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to convert booking", err, infra.KindDBFailure)
	}
	return b, nil
}
