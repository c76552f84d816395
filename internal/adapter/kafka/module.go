package kafka

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/fooddispatch/internal/config"
)

// Module provides the event mirror and closes it on shutdown.
var Module = fx.Options(
	fx.Provide(newMirror),
	fx.Invoke(registerLifecycle),
)

type mirrorParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newMirror(p mirrorParams) (*Mirror, error) {
	return New(p.Config.KafkaBrokers, p.Config.KafkaTopic, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, mirror *Mirror, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if mirror.Enabled() {
				logger.Info("kafka event mirror enabled", slog.String("topic", mirror.topic))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return mirror.Close(ctx)
		},
	})
}
