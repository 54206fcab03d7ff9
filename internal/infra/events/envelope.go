package events

import (
	"encoding/json"
	"fmt"
	"time"

	"toolrental/internal/usecase/shared"
)

const envelopeVersion = 1

// Envelope wraps an outbox payload for consumers of the events exchange.
type Envelope struct {
	EventName    string          `json:"eventName"`
	EventVersion int             `json:"eventVersion"`
	EventID      string          `json:"eventId"`
	Producer     string          `json:"producer"`
	PartitionKey string          `json:"partitionKey,omitempty"`
	OccurredAt   time.Time       `json:"occurredAt"`
	Payload      json.RawMessage `json:"payload"`
}

type partitionHint struct {
	BookingID string `json:"bookingId"`
}

// NewEnvelope reuses the job id as event id so a redelivered job is
// recognisable downstream.
func NewEnvelope(job shared.OutboxJob, producer string) Envelope {
	var hint partitionHint
	_ = json.Unmarshal(job.Payload, &hint)

	return Envelope{
		EventName:    job.Topic,
		EventVersion: envelopeVersion,
		EventID:      job.ID.String(),
		Producer:     producer,
		PartitionKey: hint.BookingID,
		OccurredAt:   job.CreatedAt.UTC(),
		Payload:      json.RawMessage(job.Payload),
	}
}

func (e Envelope) Validate() error {
	if e.EventName == "" {
		return fmt.Errorf("missing eventName")
	}
	if e.EventID == "" {
		return fmt.Errorf("missing eventId")
	}
	if !json.Valid(e.Payload) {
		return fmt.Errorf("payload is not valid json")
	}
	return nil
}
