package tracing

import (
	"context"

	"go.uber.org/fx"

	"github.com/polkiloo/fooddispatch/internal/config"
)

// Module installs the tracer provider before the rest of the graph starts
// emitting spans and flushes it on shutdown.
var Module = fx.Options(
	fx.Provide(newProvider),
	fx.Invoke(registerLifecycle),
)

func newProvider(cfg *config.Config) (*Provider, error) {
	return Init(context.Background(), cfg.OTLPEndpoint)
}

func registerLifecycle(lc fx.Lifecycle, p *Provider) {
	lc.Append(fx.Hook{
		OnStop: p.Shutdown,
	})
}
