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

// DispatchUseCase matches PREP orders to delivery partners.
type DispatchUseCase struct {
	tx       repository.Transactor
	orders   repository.OrderRepository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatchUseCase constructs DispatchUseCase.
func NewDispatchUseCase(tx repository.Transactor, orders repository.OrderRepository, notifier Notifier, logger *slog.Logger) *DispatchUseCase {
	return &DispatchUseCase{tx: tx, orders: orders, notifier: notifier, logger: logger, now: time.Now}
}

// AssignPartner binds the order to the partner, computes the schedule and
// reserves one capacity slot. Order and partner are updated together or not at all.
func (u *DispatchUseCase) AssignPartner(ctx context.Context, code string, partnerID int64, actor model.Identity) (order *model.Order, err error) {
	ctx, span := startSpan(ctx, "DispatchUseCase.AssignPartner",
		attribute.String("order.code", code),
		attribute.Int64("partner.id", partnerID),
	)
	defer func() { endSpan(span, err) }()

	if !actor.CanManageOrders() {
		return nil, domainErrors.ErrManagerOnly
	}

	var partner *model.DeliveryPartner
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Set) error {
		current, err := repos.Orders.GetByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if current.Status != model.OrderStatusPrep {
			return domainErrors.ErrOrderNotInPrep
		}
		if current.IsAssigned() {
			return domainErrors.ErrOrderAlreadyAssigned
		}

		partner, err = repos.Partners.GetByUserIDForUpdate(ctx, partnerID)
		if err != nil {
			return err
		}
		if !partner.IsAvailable || !partner.Active {
			return domainErrors.ErrPartnerUnavailable
		}
		if !partner.HasCapacity() {
			return domainErrors.ErrPartnerAtCapacity
		}
		if partner.Carries(current.ID) {
			return domainErrors.ErrDuplicateAssignment
		}

		schedule := model.ComputeSchedule(u.now(), current.PrepTime, partner.DeliveryMinutes())
		if err := repos.Orders.Assign(ctx, current.ID, partner.UserID, schedule); err != nil {
			return err
		}
		return repos.Partners.AddActiveOrder(ctx, partner.UserID, current.ID)
	})
	if err != nil {
		return nil, err
	}

	order, err = u.orders.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("reload assigned order: %w", err)
	}

	ref := model.UserRef{ID: partner.UserID, Name: partner.Name}
	notify(ctx, u.notifier, u.logger, event.NewOrderAssigned(*order, ref),
		event.Room(event.RoomManagers), event.OrderRoom(order.Code), event.User(partner.UserID))
	notify(ctx, u.notifier, u.logger,
		event.NewNotification(event.LevelSuccess, "New order assigned",
			fmt.Sprintf("Order %s has been assigned to you", order.Code), partner.UserID),
		event.User(partner.UserID))
	notify(ctx, u.notifier, u.logger, event.NewOrdersChanged("assigned"), event.Room(event.RoomAll))
	notify(ctx, u.notifier, u.logger, event.NewPartnersChanged("assigned"), event.Room(event.RoomAll))

	u.logger.Info("order assigned",
		slog.String("order", order.Code),
		slog.Int64("partner", partner.UserID),
		slog.Int("active_orders", len(partner.CurrentOrders)+1),
	)
	return order, nil
}
