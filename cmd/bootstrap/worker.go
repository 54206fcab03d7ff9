package bootstrap

import (
	"context"
	"log/slog"

	"toolrental/internal/pkg/config"
	"toolrental/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		worker.NewJobRunner,
		worker.NewScheduler,
	),
	fx.Invoke(startScheduler),
)

func startScheduler(lc fx.Lifecycle, cfg config.WorkerConfig, s *worker.Scheduler) {
	if !cfg.Enabled {
		slog.Info("background worker disabled")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			s.Stop()
			return nil
		},
	})
}
