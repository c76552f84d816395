package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// ReconcileFacade repairs partner capacity drift.
type ReconcileFacade interface {
	ReconcileCapacity(ctx context.Context) (int64, error)
}

// Reconciler runs capacity reconciliation on a cron schedule. Schedules use
// the six-field format with seconds, and descriptors such as "@every 10m".
type Reconciler struct {
	facade   ReconcileFacade
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewReconciler validates the schedule and constructs the job.
func NewReconciler(facade ReconcileFacade, schedule string, logger *slog.Logger) (*Reconciler, error) {
	r := &Reconciler{
		facade:   facade,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With(slog.String("component", "capacity_reconciler")),
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start begins scheduled runs.
func (r *Reconciler) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.cron.Start()
	r.logger.Info("capacity reconciler started", slog.String("schedule", r.schedule))
}

// Stop halts scheduling and waits for a running reconciliation to finish.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.mu.Unlock()

	done := r.cron.Stop()
	select {
	case <-done.Done():
		r.logger.Info("capacity reconciler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single reconciliation and reports how many partners were repaired.
func (r *Reconciler) RunOnce(ctx context.Context) int64 {
	repaired, err := r.facade.ReconcileCapacity(ctx)
	if err != nil {
		r.logger.Error("capacity reconciliation failed", slog.String("error", err.Error()))
		return 0
	}
	if repaired > 0 {
		r.logger.Warn("partner capacity drift repaired", slog.Int64("partners", repaired))
	}
	return repaired
}
