package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/event"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
	testhelpers "github.com/polkiloo/fooddispatch/internal/test"
)

type statusFixture struct {
	store    *testhelpers.MemoryStore
	notifier *testhelpers.NotifierRecorder
	uc       *StatusUseCase
	manager  model.Identity
	partner  model.Identity
	order    model.Order
}

func newStatusFixture(t *testing.T) *statusFixture {
	t.Helper()
	store := newStore()
	notifier := &testhelpers.NotifierRecorder{}
	uc := NewStatusUseCase(store, store.Orders(), store.Users(), notifier, discardLogger())
	uc.now = func() time.Time { return fixedNow }

	manager := store.AddUser("Mia", model.RoleManager)
	partner := store.AddPartner("Dan", 20, true)
	order := store.AddOrder("ORD-1", 10, manager.ID)
	if err := store.Orders().Assign(context.Background(), order.ID, partner.UserID, model.ComputeSchedule(fixedNow, 10, 20)); err != nil {
		t.Fatalf("seed assign failed: %v", err)
	}
	if err := store.Partners().AddActiveOrder(context.Background(), partner.UserID, order.ID); err != nil {
		t.Fatalf("seed capacity failed: %v", err)
	}

	return &statusFixture{
		store:    store,
		notifier: notifier,
		uc:       uc,
		manager:  model.Identity{ID: manager.ID, Role: model.RoleManager},
		partner:  model.Identity{ID: partner.UserID, Role: model.RoleDelivery},
		order:    order,
	}
}

func TestUpdateStatusFullLifecycle(t *testing.T) {
	f := newStatusFixture(t)

	for _, next := range []model.OrderStatus{model.OrderStatusPicked, model.OrderStatusOnRoute, model.OrderStatusDelivered} {
		order, err := f.uc.UpdateStatus(context.Background(), "ORD-1", next, f.partner)
		if err != nil {
			t.Fatalf("advance to %s failed: %v", next, err)
		}
		if order.Status != next {
			t.Fatalf("expected status %s, got %s", next, order.Status)
		}
	}

	delivered := f.store.Order("ORD-1")
	if delivered.PickedAt == nil || delivered.DeliveredAt == nil {
		t.Fatalf("expected lifecycle timestamps, got picked=%v delivered=%v", delivered.PickedAt, delivered.DeliveredAt)
	}
	if got := f.store.Partner(f.partner.ID); len(got.CurrentOrders) != 0 {
		t.Fatalf("expected capacity to be released, got %v", got.CurrentOrders)
	}

	for _, next := range model.OrderStatuses {
		if _, err := f.uc.UpdateStatus(context.Background(), "ORD-1", next, f.manager); !errors.Is(err, domainErrors.ErrInvalidState) {
			t.Fatalf("expected delivered order to be final, got %v for %s", err, next)
		}
	}
}

func TestUpdateStatusRejectsSkips(t *testing.T) {
	f := newStatusFixture(t)

	_, err := f.uc.UpdateStatus(context.Background(), "ORD-1", model.OrderStatusOnRoute, f.manager)
	if !errors.Is(err, domainErrors.ErrInvalidTransition) || !errors.Is(err, domainErrors.ErrInvalidState) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if !strings.Contains(err.Error(), "PREP -> ON_ROUTE") {
		t.Fatalf("expected message to name both statuses, got %q", err.Error())
	}
	if got := f.store.Order("ORD-1"); got.Status != model.OrderStatusPrep {
		t.Fatalf("status must stay PREP, got %s", got.Status)
	}
	if f.notifier.Count() != 0 {
		t.Fatalf("expected no events, got %v", f.notifier.Types())
	}
}

func TestUpdateStatusCapabilities(t *testing.T) {
	f := newStatusFixture(t)
	stranger := f.store.AddPartner("Eve", 20, true)

	_, err := f.uc.UpdateStatus(context.Background(), "ORD-1", model.OrderStatusPicked, model.Identity{ID: stranger.UserID, Role: model.RoleDelivery})
	if !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected forbidden for another partner, got %v", err)
	}

	if _, err := f.uc.UpdateStatus(context.Background(), "ORD-1", model.OrderStatusPicked, f.manager); err != nil {
		t.Fatalf("expected manager to advance any order, got %v", err)
	}

	if _, err := f.uc.UpdateStatus(context.Background(), "ORD-404", model.OrderStatusPicked, f.manager); !errors.Is(err, domainErrors.ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateStatusEvents(t *testing.T) {
	f := newStatusFixture(t)

	if _, err := f.uc.UpdateStatus(context.Background(), "ORD-1", model.OrderStatusPicked, f.partner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(f.notifier.Types()) != fmt.Sprint([]event.Type{event.OrderStatusUpdated, event.OrdersChanged}) {
		t.Fatalf("unexpected events %v", f.notifier.Types())
	}

	updated, _ := f.notifier.Find(event.OrderStatusUpdated)
	want := []event.Audience{event.Room(event.RoomManagers), event.Room(event.RoomDeliveryPartners), event.OrderRoom("ORD-1")}
	if fmt.Sprint(updated.Audiences) != fmt.Sprint(want) {
		t.Fatalf("unexpected audiences %v", updated.Audiences)
	}
	data := updated.Event.Data.(event.StatusUpdatedData)
	if data.OldStatus != model.OrderStatusPrep || data.NewStatus != model.OrderStatusPicked {
		t.Fatalf("unexpected transition %s -> %s", data.OldStatus, data.NewStatus)
	}
	if data.UpdatedBy.Name != "Dan" || data.UpdatedBy.Role != model.RoleDelivery {
		t.Fatalf("unexpected actor %+v", data.UpdatedBy)
	}
	if !data.Timestamp.Equal(fixedNow) || data.Message != "Order ORD-1 status changed from PREP to PICKED" {
		t.Fatalf("unexpected payload %+v", data)
	}

	f.notifier.Reset()
	if _, err := f.uc.UpdateStatus(context.Background(), "ORD-1", model.OrderStatusOnRoute, f.partner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.uc.UpdateStatus(context.Background(), "ORD-1", model.OrderStatusDelivered, f.partner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.notifier.Find(event.PartnersChanged); !ok {
		t.Fatalf("expected partners-changed on delivery, got %v", f.notifier.Types())
	}
}

func TestUpdateStatusRollsBackWhenReleaseFails(t *testing.T) {
	f := newStatusFixture(t)
	for _, next := range []model.OrderStatus{model.OrderStatusPicked, model.OrderStatusOnRoute} {
		if _, err := f.uc.UpdateStatus(context.Background(), "ORD-1", next, f.manager); err != nil {
			t.Fatalf("advance to %s failed: %v", next, err)
		}
	}

	f.store.Fail("Partners.RemoveActiveOrder", errors.New("db down"))
	if _, err := f.uc.UpdateStatus(context.Background(), "ORD-1", model.OrderStatusDelivered, f.manager); err == nil {
		t.Fatal("expected release failure to surface")
	}
	if got := f.store.Order("ORD-1"); got.Status != model.OrderStatusOnRoute || got.DeliveredAt != nil {
		t.Fatalf("status write must roll back, got %s", got.Status)
	}
	if got := f.store.Partner(f.partner.ID); len(got.CurrentOrders) != 1 {
		t.Fatalf("capacity must stay reserved, got %v", got.CurrentOrders)
	}
}

func TestUpdateStatusUnresolvedActorStillPublishes(t *testing.T) {
	f := newStatusFixture(t)
	f.store.Fail("Users.GetByID", errors.New("lookup failed"))

	if _, err := f.uc.UpdateStatus(context.Background(), "ORD-1", model.OrderStatusPicked, f.manager); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated, ok := f.notifier.Find(event.OrderStatusUpdated)
	if !ok {
		t.Fatal("expected status event")
	}
	if by := updated.Event.Data.(event.StatusUpdatedData).UpdatedBy; by.ID != f.manager.ID || by.Name != "" {
		t.Fatalf("unexpected actor %+v", by)
	}
}
