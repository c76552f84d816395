package realtime

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/fooddispatch/internal/config"
	"github.com/polkiloo/fooddispatch/internal/usecase"
)

// Module provides the hub as the use case notifier together with the websocket gateway.
var Module = fx.Options(
	fx.Provide(
		newHub,
		func(h *Hub) usecase.Notifier { return h },
		newGateway,
	),
	fx.Invoke(registerHubLifecycle),
)

type hubParams struct {
	fx.In

	Logger *slog.Logger
	Mirror Mirror `optional:"true"`
}

func newHub(p hubParams) *Hub {
	return NewHub(p.Logger, p.Mirror)
}

type gatewayParams struct {
	fx.In

	Hub    *Hub
	Ops    Operations
	Logger *slog.Logger
	Config *config.Config
}

func newGateway(p gatewayParams) *Gateway {
	return NewGateway(p.Hub, p.Ops, p.Logger, p.Config.HubSendBuffer, WithAllowedOrigins(p.Config.WSAllowedOrigins...))
}

func registerHubLifecycle(lc fx.Lifecycle, hub *Hub) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			hub.Close()
			return nil
		},
	})
}

var _ usecase.Notifier = (*Hub)(nil)
