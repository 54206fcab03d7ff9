package readstore

import (
	"context"

	"toolrental/internal/infra"
	"toolrental/internal/infra/db"
	"toolrental/internal/pkg/pgconv"
	"toolrental/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookingViewSelect = `SELECT b.id, b.renter_id, u.email, b.tool_id, t.name, b.shop_id, s.name, s.owner_id,
	b.quantity, b.start_time, b.end_time, b.duration_hours,
	b.rental_price, b.deposit_amount, b.total_amount,
	b.status, b.payment_status, b.payment_method, b.order_ref, b.payment_ref,
	b.pickup_time, b.return_time, b.notes, b.created_at, b.updated_at
FROM bookings b
JOIN tools t ON t.id = b.tool_id
JOIN shops s ON s.id = b.shop_id
JOIN users u ON u.id = b.renter_id`

const (
	getBookingViewQuery = bookingViewSelect + `
WHERE b.id = $1`

	listBookingViewsQuery = bookingViewSelect + `
WHERE ($1::uuid IS NULL OR b.renter_id = $1)
	AND ($2::uuid IS NULL OR s.owner_id = $2)
	AND ($3::text IS NULL OR b.status = $3)
	AND ($4::timestamptz IS NULL OR (b.created_at, b.id) < ($4, $5::uuid))
ORDER BY b.created_at DESC, b.id DESC
LIMIT $6`
)

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(db db.DBTX) *BookingReadStore {
	return &BookingReadStore{db: db}
}

func (r *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	rows, err := r.db.Query(ctx, getBookingViewQuery, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}

	view, err := pgx.CollectExactlyOneRow(rows, scanBookingView)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}
	return view, nil
}

func (r *BookingReadStore) List(ctx context.Context, scope queries.BookingScope, filter queries.BookingFilter, after *queries.Keyset, limit int32) ([]*queries.BookingView, error) {
	afterAt := pgtype.Timestamptz{}
	afterID := pgtype.UUID{}
	if after != nil {
		afterAt = pgconv.TimeToPgtype(after.CreatedAt)
		afterID = pgconv.UUIDToPgtype(after.ID)
	}

	rows, err := r.db.Query(ctx, listBookingViewsQuery,
		pgconv.UUIDPtrToPgtype(scope.RenterID),
		pgconv.UUIDPtrToPgtype(scope.OwnerID),
		pgconv.StringPtrToPgtype(filter.Status),
		afterAt,
		afterID,
		limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}

	views, err := pgx.CollectRows(rows, scanBookingView)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan bookings", err)
	}
	return views, nil
}

func scanBookingView(row pgx.CollectableRow) (*queries.BookingView, error) {
	var (
		v                       queries.BookingView
		quantity, durationHours int32
		orderRef, paymentRef    pgtype.Text
		pickupTime, returnTime  pgtype.Timestamptz
	)
	err := row.Scan(
		&v.ID, &v.RenterID, &v.RenterEmail, &v.ToolID, &v.ToolName, &v.ShopID, &v.ShopName, &v.OwnerID,
		&quantity, &v.StartTime, &v.EndTime, &durationHours,
		&v.RentalPrice, &v.DepositAmount, &v.TotalAmount,
		&v.Status, &v.PaymentStatus, &v.PaymentMethod, &orderRef, &paymentRef,
		&pickupTime, &returnTime, &v.Notes, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Quantity = int(quantity)
	v.DurationHours = int(durationHours)
	v.OrderRef = pgconv.StringPtrFromPgtype(orderRef)
	v.PaymentRef = pgconv.StringPtrFromPgtype(paymentRef)
	v.PickupTime = pgconv.TimePtrFromPgtype(pickupTime)
	v.ReturnTime = pgconv.TimePtrFromPgtype(returnTime)
	return &v, nil
}
