package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/fooddispatch/internal/config"
	"github.com/polkiloo/fooddispatch/internal/tracing"
	"github.com/polkiloo/fooddispatch/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewDispatchFacade,
		newHTTPServer,
		newOverdueMonitor,
		newReconciler,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: tracing.WrapHandler(p.Router),
	}
}

type workerParams struct {
	fx.In

	Facade *DispatchFacade
	Config *config.Config
	Logger *slog.Logger
}

func newOverdueMonitor(p workerParams) *worker.OverdueMonitor {
	return worker.NewOverdueMonitor(
		p.Facade,
		p.Config.OverduePollInterval,
		p.Config.OverdueBatch,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

func newReconciler(p workerParams) (*worker.Reconciler, error) {
	return worker.NewReconciler(p.Facade, p.Config.ReconcileSchedule, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Monitor    *worker.OverdueMonitor
	Reconciler *worker.Reconciler
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting fooddispatch", slog.String("addr", p.Server.Addr))
			p.Monitor.Start(ctx)
			p.Reconciler.Start()
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			p.Monitor.Stop()
			if err := p.Reconciler.Stop(shutdownCtx); err != nil {
				p.Logger.Warn("reconciler did not stop in time", slog.String("error", err.Error()))
			}
			p.Logger.Info("fooddispatch stopped")
			return nil
		},
	})
}
