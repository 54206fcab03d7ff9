package shared

import (
	"context"
	"time"

	"toolrental/internal/domain/booking"
	"toolrental/internal/domain/notification"
	"toolrental/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: Read-only transaction for multi-table consistent reads
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error
	// CommandReads: Direct access to command reads for validation outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Bookings() BookingRepository
	Tools() ToolRepository
	Idempotency() IdempotencyRepository
	Notifications() NotificationRepository
	Outbox() OutboxRepository
	Reads() CommandReads
	DB() db.DBTX
}

type CommandReads interface {
	ToolByID(ctx context.Context, id uuid.UUID) (*ToolSnapshot, error)
	IdempotencyByKey(ctx context.Context, key, userID uuid.UUID) (*IdempotencyRecord, error)
}

type BookingRepository interface {
	Create(ctx context.Context, tx db.DBTX, b *booking.Booking) (uuid.UUID, error)
	Get(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error)
	GetByOrderRef(ctx context.Context, tx db.DBTX, orderRef string) (*booking.Booking, error)
	UpdateState(ctx context.Context, tx db.DBTX, b *booking.Booking, prev booking.State) error
	MarkPaidByOrderRef(ctx context.Context, tx db.DBTX, orderRef, paymentRef string, at time.Time) (*booking.Booking, error)
}

type ToolRepository interface {
	Reserve(ctx context.Context, tx db.DBTX, toolID uuid.UUID, quantity int) error
	Release(ctx context.Context, tx db.DBTX, toolID uuid.UUID, quantity int) error
}

type IdempotencyRepository interface {
	TryInsert(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	UpdateStatusCompleted(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, responseBodyHash string, bookingID uuid.UUID) error
	Delete(ctx context.Context, tx db.DBTX, key, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, tx db.DBTX, now time.Time) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, tx db.DBTX, n *notification.Notification) error
	MarkRead(ctx context.Context, tx db.DBTX, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, tx db.DBTX, userID uuid.UUID) (int64, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, tx db.DBTX, kind, topic string, payload []byte, runAt time.Time) error
	ClaimDue(ctx context.Context, tx db.DBTX, now, leaseUntil time.Time, limit int) ([]OutboxJob, error)
	MarkSent(ctx context.Context, tx db.DBTX, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, tx db.DBTX, id uuid.UUID, lastError string, nextRunAt time.Time, maxAttempts int) error
}
