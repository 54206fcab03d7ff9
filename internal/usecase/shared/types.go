package shared

import (
	"time"

	"github.com/google/uuid"
)

// ToolSnapshot is the write-side view of a tool used to build a booking.
type ToolSnapshot struct {
	ID                uuid.UUID
	ShopID            uuid.UUID
	OwnerID           uuid.UUID
	Name              string
	PricePerHour      int64
	PricePerDay       *int64
	PricePerWeek      *int64
	DepositAmount     int64
	QuantityTotal     int
	QuantityAvailable int
	IsAvailable       bool
}

const (
	IdempotencyStatusProcessing = "processing"
	IdempotencyStatusCompleted  = "completed"
)

type IdempotencyRecord struct {
	Key             uuid.UUID
	UserID          uuid.UUID
	Status          string
	RequestHash     string
	ResultBookingID *uuid.UUID
	ExpiresAt       time.Time
}

type OutboxJob struct {
	ID        uuid.UUID
	Kind      string
	Topic     string
	Payload   []byte
	Attempts  int
	RunAt     time.Time
	CreatedAt time.Time
}
