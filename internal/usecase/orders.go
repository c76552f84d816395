package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/event"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/domain/repository"
)

// CreateOrderInput is the unvalidated payload of a new order.
type CreateOrderInput struct {
	OrderID         string
	Items           []model.Item
	PrepTime        int
	CustomerName    string
	DeliveryAddress string
}

// OrderQuery selects a page of orders. Status is optional and case-insensitive.
type OrderQuery struct {
	Page   int
	Limit  int
	Status string
}

// OrderUseCase creates and lists orders.
type OrderUseCase struct {
	orders   repository.OrderRepository
	notifier Notifier
	logger   *slog.Logger
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, notifier Notifier, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{orders: orders, notifier: notifier, logger: logger}
}

// CreateOrder persists a new PREP order and announces it to every dispatcher and partner.
func (u *OrderUseCase) CreateOrder(ctx context.Context, actor model.Identity, in CreateOrderInput) (order *model.Order, err error) {
	ctx, span := startSpan(ctx, "OrderUseCase.CreateOrder", attribute.Int64("actor.id", actor.ID))
	defer func() { endSpan(span, err) }()

	if !actor.CanManageOrders() {
		return nil, domainErrors.ErrManagerOnly
	}
	code, err := NormalizeOrderCode(in.OrderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateItems(in.Items); err != nil {
		return nil, err
	}
	if err := ValidatePrepTime(in.PrepTime); err != nil {
		return nil, err
	}

	order, err = u.orders.Create(ctx, model.NewOrder{
		Code:            code,
		Items:           in.Items,
		PrepTime:        in.PrepTime,
		CreatedBy:       actor.ID,
		CustomerName:    in.CustomerName,
		DeliveryAddress: in.DeliveryAddress,
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.code", order.Code))

	notify(ctx, u.notifier, u.logger, event.NewOrderCreated(*order),
		event.Room(event.RoomDeliveryPartners), event.Room(event.RoomManagers))
	notify(ctx, u.notifier, u.logger, event.NewOrdersChanged("created"), event.Room(event.RoomAll))
	return order, nil
}

// GetOrders returns a page of orders, newest first.
func (u *OrderUseCase) GetOrders(ctx context.Context, query OrderQuery) (model.OrderPage, error) {
	return u.list(ctx, query, 0)
}

// GetMyOrders lists the orders assigned to the calling partner.
func (u *OrderUseCase) GetMyOrders(ctx context.Context, actor model.Identity, query OrderQuery) (model.OrderPage, error) {
	if !actor.IsPartner() {
		return model.OrderPage{}, domainErrors.ErrDeliveryOnly
	}
	return u.list(ctx, query, actor.ID)
}

func (u *OrderUseCase) list(ctx context.Context, query OrderQuery, partnerID int64) (model.OrderPage, error) {
	filter := model.OrderFilter{
		PartnerID: partnerID,
		Page:      model.Page{Number: query.Page, Limit: query.Limit}.Normalize(),
	}
	if query.Status != "" {
		status, err := model.ParseOrderStatus(query.Status)
		if err != nil {
			return model.OrderPage{}, err
		}
		filter.Status = status
	}

	orders, total, err := u.orders.List(ctx, filter)
	if err != nil {
		return model.OrderPage{}, err
	}
	return model.OrderPage{Orders: orders, Page: filter.Page, Total: total}, nil
}

// GetOrderByID looks an order up by its public code.
func (u *OrderUseCase) GetOrderByID(ctx context.Context, code string) (*model.Order, error) {
	return u.orders.GetByCode(ctx, code)
}
