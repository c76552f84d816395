package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/fooddispatch/internal/adapter/kafka"
	"github.com/polkiloo/fooddispatch/internal/app"
	"github.com/polkiloo/fooddispatch/internal/config"
	"github.com/polkiloo/fooddispatch/internal/logger"
	"github.com/polkiloo/fooddispatch/internal/pkg/auth"
	"github.com/polkiloo/fooddispatch/internal/realtime"
	"github.com/polkiloo/fooddispatch/internal/server/http/handlers"
	"github.com/polkiloo/fooddispatch/internal/server/http/router"
	"github.com/polkiloo/fooddispatch/internal/storage/postgres"
	"github.com/polkiloo/fooddispatch/internal/tracing"
	"github.com/polkiloo/fooddispatch/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		tracing.Module,
		auth.Module,
		postgres.Module,
		kafka.Module,
		realtime.Module,
		usecase.Module,
		fx.Provide(
			func(m *kafka.Mirror) realtime.Mirror { return m },
			func(f *app.DispatchFacade) realtime.Operations { return f },
			func(f *app.DispatchFacade) handlers.DispatchFacade { return f },
			func(s *postgres.Storage) app.HealthChecker { return s },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
