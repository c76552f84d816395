package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
)

// OverdueFacade exposes the subset of application functionality required by the monitor.
type OverdueFacade interface {
	ClaimOverdue(ctx context.Context, limit int) ([]model.Order, error)
	NotifyOverdue(ctx context.Context, order model.Order) error
}

// OverdueMonitor periodically claims orders past their estimated delivery time
// and fans the warnings out over a pool of workers. Claiming is atomic in the
// store, so each order is reported once even with several replicas running.
type OverdueMonitor struct {
	facade       OverdueFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewOverdueMonitor constructs the monitor worker pool.
func NewOverdueMonitor(facade OverdueFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *OverdueMonitor {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &OverdueMonitor{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger.With(slog.String("component", "overdue_monitor")),
	}
}

// Start launches background processing. Calling Start on a running monitor is a no-op.
func (m *OverdueMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.jobs = make(chan model.Order, m.batchSize*m.workers)

	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go m.worker(runCtx, m.jobs)
	}

	m.wg.Add(1)
	go m.dispatch(runCtx, m.jobs)
}

// Stop waits for all workers to finish.
func (m *OverdueMonitor) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *OverdueMonitor) dispatch(ctx context.Context, jobs chan<- model.Order) {
	defer m.wg.Done()
	defer close(jobs)
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.claimAndDispatch(ctx, jobs)
		}
	}
}

func (m *OverdueMonitor) claimAndDispatch(ctx context.Context, jobs chan<- model.Order) {
	orders, err := m.facade.ClaimOverdue(ctx, m.batchSize)
	if err != nil {
		m.logger.Error("claim overdue orders failed", slog.String("error", err.Error()))
		return
	}
	if len(orders) > 0 {
		m.logger.Info("overdue orders claimed", slog.Int("count", len(orders)))
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case jobs <- order:
		}
	}
}

func (m *OverdueMonitor) worker(ctx context.Context, jobs <-chan model.Order) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-jobs:
			if !ok {
				return
			}
			if err := m.facade.NotifyOverdue(ctx, order); err != nil {
				m.logger.Error("overdue notification failed", slog.String("order", order.Code), slog.String("error", err.Error()))
			}
		}
	}
}
