package bootstrap

import (
	"log/slog"

	"toolrental/internal/infra/gateway"
	"toolrental/internal/pkg/config"
	"toolrental/internal/usecase/shared"

	"go.uber.org/fx"
)

var GatewayModule = fx.Module("gateway",
	fx.Provide(
		NewPaymentGateway,
	),
)

// NewPaymentGateway never fails; missing credentials surface on first use.
func NewPaymentGateway(cfg config.GatewayConfig) shared.PaymentGateway {
	if !cfg.HasCredentials() {
		slog.Warn("payment gateway credentials not set, payment endpoints will fail")
	}
	if cfg.WebhookSecret == "" {
		slog.Warn("payment webhook secret not set, webhooks will be rejected")
	}
	return gateway.NewRazorpayGateway(cfg)
}
