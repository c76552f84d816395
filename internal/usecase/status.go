package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/event"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/domain/repository"
)

// StatusUseCase advances orders along PREP, PICKED, ON_ROUTE and DELIVERED.
type StatusUseCase struct {
	tx       repository.Transactor
	orders   repository.OrderRepository
	users    repository.UserRepository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewStatusUseCase constructs StatusUseCase.
func NewStatusUseCase(tx repository.Transactor, orders repository.OrderRepository, users repository.UserRepository, notifier Notifier, logger *slog.Logger) *StatusUseCase {
	return &StatusUseCase{tx: tx, orders: orders, users: users, notifier: notifier, logger: logger, now: time.Now}
}

// UpdateStatus moves the order one step forward. Delivering an order releases
// the partner's capacity slot in the same transaction.
func (u *StatusUseCase) UpdateStatus(ctx context.Context, code string, requested model.OrderStatus, actor model.Identity) (order *model.Order, err error) {
	ctx, span := startSpan(ctx, "StatusUseCase.UpdateStatus",
		attribute.String("order.code", code),
		attribute.String("order.status.requested", string(requested)),
	)
	defer func() { endSpan(span, err) }()

	var previous model.OrderStatus
	at := u.now()
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Set) error {
		current, err := repos.Orders.GetByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if !actor.CanAdvance(current) {
			return domainErrors.ErrNotAssignedPartner
		}
		if !model.IsValidTransition(current.Status, requested) {
			return domainErrors.ErrInvalidTransition.WithDetail(fmt.Sprintf("%s -> %s", current.Status, requested))
		}
		previous = current.Status

		if err := repos.Orders.UpdateStatus(ctx, current.ID, current.Status, requested, at); err != nil {
			return err
		}
		if requested == model.OrderStatusDelivered && current.AssignedPartner != nil {
			return repos.Partners.RemoveActiveOrder(ctx, current.AssignedPartner.ID, current.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err = u.orders.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	by := event.Actor{ID: actor.ID, Role: actor.Role}
	if user, err := u.users.GetByID(ctx, actor.ID); err == nil {
		by.Name = user.Name
	} else {
		u.logger.Warn("resolve status actor failed", slog.Int64("user", actor.ID), slog.String("error", err.Error()))
	}

	notify(ctx, u.notifier, u.logger, event.Event{
		Type: event.OrderStatusUpdated,
		Data: event.StatusUpdatedData{
			OrderID:   order.Code,
			OldStatus: previous,
			NewStatus: requested,
			UpdatedBy: by,
			Timestamp: at,
			Message:   fmt.Sprintf("Order %s status changed from %s to %s", order.Code, previous, requested),
			Order:     order.View(),
		},
	}, event.Room(event.RoomManagers), event.Room(event.RoomDeliveryPartners), event.OrderRoom(order.Code))
	notify(ctx, u.notifier, u.logger, event.NewOrdersChanged("status"), event.Room(event.RoomAll))
	if requested == model.OrderStatusDelivered {
		notify(ctx, u.notifier, u.logger, event.NewPartnersChanged("delivered"), event.Room(event.RoomAll))
	}
	return order, nil
}
