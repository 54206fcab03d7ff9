package bootstrap

import (
	"toolrental/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.GatewayConfig { return cfg.Gateway },
		func(cfg config.Config) config.WorkerConfig { return cfg.Worker },
	),
)
