package app

import (
	"context"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/usecase"
)

// HealthChecker reports whether the store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DispatchFacade is the single entry point used by HTTP handlers, the
// websocket gateway and the background workers.
type DispatchFacade struct {
	auth        *usecase.AuthUseCase
	orders      *usecase.OrderUseCase
	dispatch    *usecase.DispatchUseCase
	status      *usecase.StatusUseCase
	partners    *usecase.PartnerUseCase
	maintenance *usecase.MaintenanceUseCase
	health      HealthChecker
}

func NewDispatchFacade(
	auth *usecase.AuthUseCase,
	orders *usecase.OrderUseCase,
	dispatch *usecase.DispatchUseCase,
	status *usecase.StatusUseCase,
	partners *usecase.PartnerUseCase,
	maintenance *usecase.MaintenanceUseCase,
	health HealthChecker,
) *DispatchFacade {
	return &DispatchFacade{
		auth:        auth,
		orders:      orders,
		dispatch:    dispatch,
		status:      status,
		partners:    partners,
		maintenance: maintenance,
		health:      health,
	}
}

func (f *DispatchFacade) Register(ctx context.Context, in usecase.RegisterInput) (*model.User, string, error) {
	return f.auth.Register(ctx, in)
}

func (f *DispatchFacade) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	return f.auth.Login(ctx, email, password)
}

func (f *DispatchFacade) ParseToken(token string) (model.Identity, error) {
	return f.auth.ParseToken(token)
}

func (f *DispatchFacade) Me(ctx context.Context, id int64) (*model.User, error) {
	return f.auth.Me(ctx, id)
}

func (f *DispatchFacade) CreateOrder(ctx context.Context, actor model.Identity, in usecase.CreateOrderInput) (*model.Order, error) {
	return f.orders.CreateOrder(ctx, actor, in)
}

func (f *DispatchFacade) GetOrders(ctx context.Context, query usecase.OrderQuery) (model.OrderPage, error) {
	return f.orders.GetOrders(ctx, query)
}

func (f *DispatchFacade) GetMyOrders(ctx context.Context, actor model.Identity, query usecase.OrderQuery) (model.OrderPage, error) {
	return f.orders.GetMyOrders(ctx, actor, query)
}

func (f *DispatchFacade) GetOrderByID(ctx context.Context, code string) (*model.Order, error) {
	return f.orders.GetOrderByID(ctx, code)
}

func (f *DispatchFacade) AssignPartner(ctx context.Context, code string, partnerID int64, actor model.Identity) (*model.Order, error) {
	return f.dispatch.AssignPartner(ctx, code, partnerID, actor)
}

func (f *DispatchFacade) UpdateStatus(ctx context.Context, code string, status model.OrderStatus, actor model.Identity) (*model.Order, error) {
	return f.status.UpdateStatus(ctx, code, status, actor)
}

func (f *DispatchFacade) ToggleAvailability(ctx context.Context, actor model.Identity) (*model.DeliveryPartner, error) {
	return f.partners.ToggleAvailability(ctx, actor)
}

func (f *DispatchFacade) UpdateLocation(ctx context.Context, actor model.Identity, lat, lng *float64) (*model.DeliveryPartner, error) {
	return f.partners.UpdateLocation(ctx, actor, lat, lng)
}

func (f *DispatchFacade) GetProfile(ctx context.Context, actor model.Identity) (*model.DeliveryPartner, error) {
	return f.partners.GetProfile(ctx, actor)
}

func (f *DispatchFacade) ListPartners(ctx context.Context, actor model.Identity, filter model.PartnerFilter) ([]model.DeliveryPartner, error) {
	return f.partners.ListPartners(ctx, actor, filter)
}

// ClaimOverdue and the two methods below back the background workers.
func (f *DispatchFacade) ClaimOverdue(ctx context.Context, limit int) ([]model.Order, error) {
	return f.maintenance.ClaimOverdue(ctx, limit)
}

func (f *DispatchFacade) NotifyOverdue(ctx context.Context, order model.Order) error {
	return f.maintenance.NotifyOverdue(ctx, order)
}

func (f *DispatchFacade) ReconcileCapacity(ctx context.Context) (int64, error) {
	return f.maintenance.ReconcileCapacity(ctx)
}

func (f *DispatchFacade) Health(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
