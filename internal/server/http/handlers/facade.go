package handlers

import (
	"context"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	ParseToken(token string) (model.Identity, error)
	Me(ctx context.Context, id int64) (*model.User, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, actor model.Identity, in usecase.CreateOrderInput) (*model.Order, error)
	GetOrders(ctx context.Context, query usecase.OrderQuery) (model.OrderPage, error)
	GetMyOrders(ctx context.Context, actor model.Identity, query usecase.OrderQuery) (model.OrderPage, error)
	GetOrderByID(ctx context.Context, code string) (*model.Order, error)
	AssignPartner(ctx context.Context, code string, partnerID int64, actor model.Identity) (*model.Order, error)
	UpdateStatus(ctx context.Context, code string, status model.OrderStatus, actor model.Identity) (*model.Order, error)
}

// PartnerFacade covers delivery partner profiles.
type PartnerFacade interface {
	ToggleAvailability(ctx context.Context, actor model.Identity) (*model.DeliveryPartner, error)
	UpdateLocation(ctx context.Context, actor model.Identity, lat, lng *float64) (*model.DeliveryPartner, error)
	GetProfile(ctx context.Context, actor model.Identity) (*model.DeliveryPartner, error)
	ListPartners(ctx context.Context, actor model.Identity, filter model.PartnerFilter) ([]model.DeliveryPartner, error)
}

// HealthFacade reports store reachability.
type HealthFacade interface {
	Health(ctx context.Context) error
}

// DispatchFacade aggregates the full set of operations used across handlers.
type DispatchFacade interface {
	AuthFacade
	OrderFacade
	PartnerFacade
	HealthFacade
}
