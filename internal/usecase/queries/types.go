package queries

import (
	"time"

	"toolrental/internal/domain/user"
	"toolrental/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound      = errs.New("booking not found")
	ErrNotificationNotFound = errs.New("notification not found")
	ErrInvalidCursor        = errs.New("invalid cursor")
	ErrInvalidFilter        = errs.New("invalid filter")
)

// Viewer is the authenticated caller a read is performed for.
type Viewer struct {
	UserID uuid.UUID
	Role   user.Role
}

type BookingView struct {
	ID            uuid.UUID  `json:"id"`
	RenterID      uuid.UUID  `json:"renter_id"`
	RenterEmail   string     `json:"renter_email"`
	ToolID        uuid.UUID  `json:"tool_id"`
	ToolName      string     `json:"tool_name"`
	ShopID        uuid.UUID  `json:"shop_id"`
	ShopName      string     `json:"shop_name"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	Quantity      int        `json:"quantity"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	DurationHours int        `json:"duration_hours"`
	RentalPrice   int64      `json:"rental_price"`
	DepositAmount int64      `json:"deposit_amount"`
	TotalAmount   int64      `json:"total_amount"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	PaymentMethod string     `json:"payment_method"`
	OrderRef      *string    `json:"order_ref,omitempty"`
	PaymentRef    *string    `json:"payment_ref,omitempty"`
	PickupTime    *time.Time `json:"pickup_time,omitempty"`
	ReturnTime    *time.Time `json:"return_time,omitempty"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (v *BookingView) VisibleTo(viewer Viewer) bool {
	return viewer.Role.IsAdmin() || v.RenterID == viewer.UserID || v.OwnerID == viewer.UserID
}

type NotificationView struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	IsRead          bool      `json:"is_read"`
	RelatedObjectID string    `json:"related_object_id"`
	CreatedAt       time.Time `json:"created_at"`
}
