package queries

import (
	"context"
	"time"

	"toolrental/internal/domain/booking"
	"toolrental/internal/domain/user"
	"toolrental/internal/infra"
	"toolrental/internal/pkg/errs"

	"github.com/google/uuid"
)

// BookingScope narrows a listing to one renter or one shop owner. Both nil lists everything.
type BookingScope struct {
	RenterID *uuid.UUID
	OwnerID  *uuid.UUID
}

type BookingFilter struct {
	Status *string
}

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	List(ctx context.Context, scope BookingScope, filter BookingFilter, after *Keyset, limit int32) ([]*BookingView, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, viewer Viewer, id uuid.UUID) (*BookingView, error)
	GetByIDSystem(ctx context.Context, id uuid.UUID) (*BookingView, error)
	List(ctx context.Context, viewer Viewer, filter BookingFilter, cursor *Cursor, limit int) ([]*BookingView, *Cursor, error)
}

type bookingQueriesImpl struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{store: store}
}

// GetByID hides bookings the viewer is not a party to behind ErrBookingNotFound.
func (q *bookingQueriesImpl) GetByID(ctx context.Context, viewer Viewer, id uuid.UUID) (*BookingView, error) {
	view, err := q.GetByIDSystem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !view.VisibleTo(viewer) {
		return nil, ErrBookingNotFound
	}
	return view, nil
}

func (q *bookingQueriesImpl) GetByIDSystem(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return view, nil
}

func (q *bookingQueriesImpl) List(ctx context.Context, viewer Viewer, filter BookingFilter, cursor *Cursor, limit int) ([]*BookingView, *Cursor, error) {
	if filter.Status != nil {
		if _, err := booking.ParseStatus(*filter.Status); err != nil {
			return nil, nil, errs.Mark(err, ErrInvalidFilter)
		}
	}

	after, err := decodeKeyset(cursor)
	if err != nil {
		return nil, nil, err
	}

	limit = ValidateLimit(limit)
	rows, err := q.store.List(ctx, scopeFor(viewer), filter, after, int32(limit+1)) // #nosec G115 -- limit is capped by ValidateLimit
	if err != nil {
		return nil, nil, err
	}

	page, next := paginate(rows, limit, func(v *BookingView) (time.Time, uuid.UUID) {
		return v.CreatedAt, v.ID
	})
	return page, next, nil
}

func scopeFor(viewer Viewer) BookingScope {
	id := viewer.UserID
	switch viewer.Role {
	case user.RoleAdmin:
		return BookingScope{}
	case user.RoleProvider:
		return BookingScope{OwnerID: &id}
	default:
		return BookingScope{RenterID: &id}
	}
}
