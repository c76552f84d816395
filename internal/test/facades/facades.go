package facades

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/usecase"
)

var stubTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// DispatchFacadeStub provides controllable behaviour for every HTTP endpoint.
// Unset functions return a small successful default.
type DispatchFacadeStub struct {
	RegisterFn    func(context.Context, usecase.RegisterInput) (*model.User, string, error)
	LoginFn       func(context.Context, string, string) (*model.User, string, error)
	ParseFn       func(string) (model.Identity, error)
	MeFn          func(context.Context, int64) (*model.User, error)
	CreateOrderFn func(context.Context, model.Identity, usecase.CreateOrderInput) (*model.Order, error)
	GetOrdersFn   func(context.Context, usecase.OrderQuery) (model.OrderPage, error)
	MyOrdersFn    func(context.Context, model.Identity, usecase.OrderQuery) (model.OrderPage, error)
	GetOrderFn    func(context.Context, string) (*model.Order, error)
	AssignFn      func(context.Context, string, int64, model.Identity) (*model.Order, error)
	StatusFn      func(context.Context, string, model.OrderStatus, model.Identity) (*model.Order, error)
	ToggleFn      func(context.Context, model.Identity) (*model.DeliveryPartner, error)
	LocationFn    func(context.Context, model.Identity, *float64, *float64) (*model.DeliveryPartner, error)
	ProfileFn     func(context.Context, model.Identity) (*model.DeliveryPartner, error)
	ListFn        func(context.Context, model.Identity, model.PartnerFilter) ([]model.DeliveryPartner, error)
	HealthErr     error
}

// StubOrder builds a PREP order with one item.
func StubOrder(code string) *model.Order {
	return &model.Order{
		ID:        1,
		Code:      code,
		Items:     []model.Item{{Name: "Pizza", Quantity: 2, Price: 300}},
		PrepTime:  20,
		Status:    model.OrderStatusPrep,
		CreatedBy: model.UserRef{ID: 1, Name: "Mia"},
		CreatedAt: stubTime,
		UpdatedAt: stubTime,
	}
}

// StubPartner builds an available partner profile.
func StubPartner(userID int64) *model.DeliveryPartner {
	return &model.DeliveryPartner{
		UserID:              userID,
		Name:                "Dan",
		Email:               "dan@example.com",
		Active:              true,
		IsAvailable:         true,
		CurrentOrders:       []int64{},
		AverageDeliveryTime: model.DefaultAverageDeliveryTime,
	}
}

func (s DispatchFacadeStub) Register(ctx context.Context, in usecase.RegisterInput) (*model.User, string, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, in)
	}
	return &model.User{ID: 1, Name: in.Name, Email: in.Email, Role: in.Role, Active: true, CreatedAt: stubTime}, "token", nil
}

func (s DispatchFacadeStub) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	if s.LoginFn != nil {
		return s.LoginFn(ctx, email, password)
	}
	return &model.User{ID: 1, Name: "Mia", Email: email, Role: model.RoleManager, Active: true, CreatedAt: stubTime}, "token", nil
}

func (s DispatchFacadeStub) ParseToken(token string) (model.Identity, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return model.Identity{ID: 1, Role: model.RoleManager}, nil
}

func (s DispatchFacadeStub) Me(ctx context.Context, id int64) (*model.User, error) {
	if s.MeFn != nil {
		return s.MeFn(ctx, id)
	}
	return &model.User{ID: id, Name: "Mia", Role: model.RoleManager, Active: true, CreatedAt: stubTime}, nil
}

func (s DispatchFacadeStub) CreateOrder(ctx context.Context, actor model.Identity, in usecase.CreateOrderInput) (*model.Order, error) {
	if s.CreateOrderFn != nil {
		return s.CreateOrderFn(ctx, actor, in)
	}
	return StubOrder(in.OrderID), nil
}

func (s DispatchFacadeStub) GetOrders(ctx context.Context, query usecase.OrderQuery) (model.OrderPage, error) {
	if s.GetOrdersFn != nil {
		return s.GetOrdersFn(ctx, query)
	}
	return model.OrderPage{Orders: []model.Order{*StubOrder("ORD-1")}, Page: model.Page{Number: 1, Limit: 10}, Total: 1}, nil
}

func (s DispatchFacadeStub) GetMyOrders(ctx context.Context, actor model.Identity, query usecase.OrderQuery) (model.OrderPage, error) {
	if s.MyOrdersFn != nil {
		return s.MyOrdersFn(ctx, actor, query)
	}
	return model.OrderPage{Page: model.Page{Number: 1, Limit: 10}}, nil
}

func (s DispatchFacadeStub) GetOrderByID(ctx context.Context, code string) (*model.Order, error) {
	if s.GetOrderFn != nil {
		return s.GetOrderFn(ctx, code)
	}
	return StubOrder(code), nil
}

func (s DispatchFacadeStub) AssignPartner(ctx context.Context, code string, partnerID int64, actor model.Identity) (*model.Order, error) {
	if s.AssignFn != nil {
		return s.AssignFn(ctx, code, partnerID, actor)
	}
	order := StubOrder(code)
	order.AssignedPartner = &model.UserRef{ID: partnerID, Name: "Dan"}
	return order, nil
}

func (s DispatchFacadeStub) UpdateStatus(ctx context.Context, code string, status model.OrderStatus, actor model.Identity) (*model.Order, error) {
	if s.StatusFn != nil {
		return s.StatusFn(ctx, code, status, actor)
	}
	order := StubOrder(code)
	order.Status = status
	return order, nil
}

func (s DispatchFacadeStub) ToggleAvailability(ctx context.Context, actor model.Identity) (*model.DeliveryPartner, error) {
	if s.ToggleFn != nil {
		return s.ToggleFn(ctx, actor)
	}
	return StubPartner(actor.ID), nil
}

func (s DispatchFacadeStub) UpdateLocation(ctx context.Context, actor model.Identity, lat, lng *float64) (*model.DeliveryPartner, error) {
	if s.LocationFn != nil {
		return s.LocationFn(ctx, actor, lat, lng)
	}
	return StubPartner(actor.ID), nil
}

func (s DispatchFacadeStub) GetProfile(ctx context.Context, actor model.Identity) (*model.DeliveryPartner, error) {
	if s.ProfileFn != nil {
		return s.ProfileFn(ctx, actor)
	}
	return StubPartner(actor.ID), nil
}

func (s DispatchFacadeStub) ListPartners(ctx context.Context, actor model.Identity, filter model.PartnerFilter) ([]model.DeliveryPartner, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, actor, filter)
	}
	return []model.DeliveryPartner{*StubPartner(2)}, nil
}

func (s DispatchFacadeStub) Health(context.Context) error {
	return s.HealthErr
}

// MaintenanceFacadeStub mimics the worker side of the facade.
type MaintenanceFacadeStub struct {
	Batches  [][]model.Order
	ClaimFn  func(context.Context, int) ([]model.Order, error)
	NotifyFn func(context.Context, model.Order) error

	Repaired     int64
	ReconcileErr error

	mu           sync.Mutex
	Notified     []string
	claimCalls   int32
	reconcileRun int32
}

// ClaimOverdue hands out the configured batches one per call.
func (s *MaintenanceFacadeStub) ClaimOverdue(ctx context.Context, limit int) ([]model.Order, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.claimCalls, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	return nil, nil
}

// NotifyOverdue records the order code.
func (s *MaintenanceFacadeStub) NotifyOverdue(ctx context.Context, order model.Order) error {
	if s.NotifyFn != nil {
		if err := s.NotifyFn(ctx, order); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notified = append(s.Notified, order.Code)
	return nil
}

// ReconcileCapacity counts invocations.
func (s *MaintenanceFacadeStub) ReconcileCapacity(context.Context) (int64, error) {
	atomic.AddInt32(&s.reconcileRun, 1)
	return s.Repaired, s.ReconcileErr
}

// NotifiedCodes returns a copy of the recorded codes.
func (s *MaintenanceFacadeStub) NotifiedCodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Notified...)
}

// ClaimCalls reports how many polls happened.
func (s *MaintenanceFacadeStub) ClaimCalls() int {
	return int(atomic.LoadInt32(&s.claimCalls))
}

// ReconcileRuns reports how many reconciliations happened.
func (s *MaintenanceFacadeStub) ReconcileRuns() int {
	return int(atomic.LoadInt32(&s.reconcileRun))
}
