package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/polkiloo/fooddispatch/internal/domain/event"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/domain/repository"
)

// MaintenanceUseCase backs the background workers.
type MaintenanceUseCase struct {
	orders   repository.OrderRepository
	partners repository.PartnerRepository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewMaintenanceUseCase constructs MaintenanceUseCase.
func NewMaintenanceUseCase(orders repository.OrderRepository, partners repository.PartnerRepository, notifier Notifier, logger *slog.Logger) *MaintenanceUseCase {
	return &MaintenanceUseCase{orders: orders, partners: partners, notifier: notifier, logger: logger, now: time.Now}
}

// ClaimOverdue returns late orders that have not been reported yet and marks them reported.
func (u *MaintenanceUseCase) ClaimOverdue(ctx context.Context, limit int) ([]model.Order, error) {
	return u.orders.ClaimOverdue(ctx, u.now(), limit)
}

// NotifyOverdue warns managers and the assigned partner about a late order.
func (u *MaintenanceUseCase) NotifyOverdue(ctx context.Context, order model.Order) error {
	message := fmt.Sprintf("Order %s is running late", order.Code)
	if order.EstimatedDeliveryTime != nil {
		late := u.now().Sub(*order.EstimatedDeliveryTime).Round(time.Minute)
		message = fmt.Sprintf("Order %s is running late by %s", order.Code, late)
	}

	audiences := []event.Audience{event.Room(event.RoomManagers)}
	var recipient int64
	if order.AssignedPartner != nil {
		recipient = order.AssignedPartner.ID
		audiences = append(audiences, event.User(recipient))
	}
	return u.notifier.Publish(ctx, event.NewNotification(event.LevelWarning, "Order delayed", message, recipient), audiences...)
}

// ReconcileCapacity drops delivered or deleted orders from partner queues.
func (u *MaintenanceUseCase) ReconcileCapacity(ctx context.Context) (int64, error) {
	repaired, err := u.partners.ReconcileActiveOrders(ctx)
	if err != nil {
		return 0, err
	}
	if repaired > 0 {
		notify(ctx, u.notifier, u.logger, event.NewPartnersChanged("reconciled"), event.Room(event.RoomAll))
	}
	return repaired, nil
}
