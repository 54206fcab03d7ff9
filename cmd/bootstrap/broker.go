package bootstrap

import (
	"context"
	"log/slog"

	"toolrental/internal/infra/events"
	"toolrental/internal/pkg/config"

	"go.uber.org/fx"
)

var BrokerModule = fx.Module("broker",
	fx.Provide(
		NewPublisher,
	),
)

// NewPublisher falls back to logging events when no broker URL is configured.
func NewPublisher(lc fx.Lifecycle, cfg config.Config) (events.Publisher, error) {
	var pub events.Publisher
	if cfg.Broker.URL == "" {
		slog.Info("AMQP_URL not set, events will be logged instead of published")
		pub = events.NewLogPublisher(cfg.Broker.Producer)
	} else {
		amqpPub, err := events.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Exchange, cfg.Broker.Producer)
		if err != nil {
			return nil, err
		}
		slog.Info("connected to event broker", "exchange", cfg.Broker.Exchange)
		pub = amqpPub
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return pub.Close()
		},
	})
	return pub, nil
}
