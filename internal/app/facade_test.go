package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/event"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
	testhelpers "github.com/polkiloo/fooddispatch/internal/test"
	"github.com/polkiloo/fooddispatch/internal/usecase"
)

type healthStub struct{ err error }

func (h healthStub) HealthCheck(context.Context) error { return h.err }

type facadeFixture struct {
	facade   *DispatchFacade
	store    *testhelpers.MemoryStore
	notifier *testhelpers.NotifierRecorder
	health   *healthStub
}

func newFacadeFixture() *facadeFixture {
	store := testhelpers.NewMemoryStore()
	notifier := &testhelpers.NotifierRecorder{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	health := &healthStub{}

	facade := NewDispatchFacade(
		usecase.NewAuthUseCase(store, store.Users(), testhelpers.HasherStub{}, testhelpers.StrategyStub{}),
		usecase.NewOrderUseCase(store.Orders(), notifier, logger),
		usecase.NewDispatchUseCase(store, store.Orders(), notifier, logger),
		usecase.NewStatusUseCase(store, store.Orders(), store.Users(), notifier, logger),
		usecase.NewPartnerUseCase(store.Partners(), store.Orders(), notifier, logger),
		usecase.NewMaintenanceUseCase(store.Orders(), store.Partners(), notifier, logger),
		health,
	)
	return &facadeFixture{facade: facade, store: store, notifier: notifier, health: health}
}

func TestDispatchFacadeAuth(t *testing.T) {
	f := newFacadeFixture()
	ctx := context.Background()

	usr, token, err := f.facade.Register(ctx, usecase.RegisterInput{
		Name: "Dan", Email: "dan@example.com", Password: "secret", Role: model.RoleDelivery,
	})
	require.NoError(t, err)
	assert.Equal(t, "token-1-delivery", token)

	_, token, err = f.facade.Login(ctx, "dan@example.com", "secret")
	require.NoError(t, err)

	identity, err := f.facade.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, model.Identity{ID: usr.ID, Role: model.RoleDelivery}, identity)

	me, err := f.facade.Me(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "dan@example.com", me.Email)

	profile, err := f.facade.GetProfile(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAverageDeliveryTime, profile.AverageDeliveryTime)
}

func TestDispatchFacadeOrderLifecycle(t *testing.T) {
	f := newFacadeFixture()
	ctx := context.Background()

	mgr := f.store.AddUser("Mia", model.RoleManager)
	dan := f.store.AddPartner("Dan", 20, true)
	manager := model.Identity{ID: mgr.ID, Role: model.RoleManager}
	partner := model.Identity{ID: dan.UserID, Role: model.RoleDelivery}

	order, err := f.facade.CreateOrder(ctx, manager, usecase.CreateOrderInput{
		OrderID:  "ORD-1001",
		Items:    []model.Item{{Name: "Pizza", Quantity: 2, Price: 300}},
		PrepTime: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPrep, order.Status)

	page, err := f.facade.GetOrders(ctx, usecase.OrderQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	assigned, err := f.facade.AssignPartner(ctx, "ORD-1001", dan.UserID, manager)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedPartner)
	assert.Equal(t, dan.UserID, assigned.AssignedPartner.ID)
	assert.NotNil(t, assigned.EstimatedDeliveryTime)

	mine, err := f.facade.GetMyOrders(ctx, partner, usecase.OrderQuery{})
	require.NoError(t, err)
	require.Len(t, mine.Orders, 1)

	for _, status := range []model.OrderStatus{model.OrderStatusPicked, model.OrderStatusOnRoute, model.OrderStatusDelivered} {
		updated, err := f.facade.UpdateStatus(ctx, "ORD-1001", status, partner)
		require.NoError(t, err, status)
		assert.Equal(t, status, updated.Status)
	}

	got, err := f.facade.GetOrderByID(ctx, "ORD-1001")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, got.Status)
	assert.Empty(t, f.store.Partner(dan.UserID).CurrentOrders)

	_, ok := f.notifier.Find(event.OrderAssigned)
	assert.True(t, ok)
	_, ok = f.notifier.Find(event.OrderStatusUpdated)
	assert.True(t, ok)
}

func TestDispatchFacadePartners(t *testing.T) {
	f := newFacadeFixture()
	ctx := context.Background()

	mgr := f.store.AddUser("Mia", model.RoleManager)
	dan := f.store.AddPartner("Dan", 20, false)
	partner := model.Identity{ID: dan.UserID, Role: model.RoleDelivery}

	toggled, err := f.facade.ToggleAvailability(ctx, partner)
	require.NoError(t, err)
	assert.True(t, toggled.IsAvailable)

	lat, lng := 12.97, 77.59
	located, err := f.facade.UpdateLocation(ctx, partner, &lat, &lng)
	require.NoError(t, err)
	assert.Equal(t, model.Location{Lat: lat, Lng: lng}, located.Location)

	list, err := f.facade.ListPartners(ctx, model.Identity{ID: mgr.ID, Role: model.RoleManager}, model.PartnerFilter{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.facade.UpdateLocation(ctx, partner, &lat, nil)
	assert.True(t, errors.Is(err, domainErrors.ErrMissingCoordinates))
}

func TestDispatchFacadeMaintenance(t *testing.T) {
	f := newFacadeFixture()
	ctx := context.Background()

	claimed, err := f.facade.ClaimOverdue(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	require.NoError(t, f.facade.NotifyOverdue(ctx, model.Order{
		Code:            "ORD-LATE",
		AssignedPartner: &model.UserRef{ID: 2, Name: "Dan"},
	}))
	_, ok := f.notifier.Find(event.Notification)
	assert.True(t, ok)

	repaired, err := f.facade.ReconcileCapacity(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

func TestDispatchFacadeHealth(t *testing.T) {
	f := newFacadeFixture()
	assert.NoError(t, f.facade.Health(context.Background()))

	f.health.err = domainErrors.ErrUnavailable
	assert.ErrorIs(t, f.facade.Health(context.Background()), domainErrors.ErrUnavailable)
}
