package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"toolrental/internal/usecase/shared"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 3 * time.Second

type Publisher interface {
	Publish(ctx context.Context, job shared.OutboxJob) error
	Close() error
}

type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	producer string
}

func NewAMQPPublisher(url, exchange, producer string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, producer: producer}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, job shared.OutboxJob) error {
	env := NewEnvelope(job, p.producer)
	if err := env.Validate(); err != nil {
		return fmt.Errorf("invalid envelope for job %s: %w", job.ID, err)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", job.Topic, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		p.exchange,
		job.Topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    env.EventID,
			Timestamp:    env.OccurredAt,
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		slog.Warn("failed to close broker channel", "error", err)
	}
	return p.conn.Close()
}

// LogPublisher stands in for the broker when none is configured.
type LogPublisher struct {
	producer string
}

func NewLogPublisher(producer string) *LogPublisher {
	return &LogPublisher{producer: producer}
}

func (p *LogPublisher) Publish(_ context.Context, job shared.OutboxJob) error {
	env := NewEnvelope(job, p.producer)
	if err := env.Validate(); err != nil {
		return fmt.Errorf("invalid envelope for job %s: %w", job.ID, err)
	}
	slog.Info("event published",
		"event_id", env.EventID,
		"event_name", env.EventName,
		"kind", job.Kind,
		"partition_key", env.PartitionKey)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
