package repository

import (
	"context"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
)

// PartnerRepository describes persistence operations for delivery partner profiles.
type PartnerRepository interface {
	Create(ctx context.Context, userID int64, averageDeliveryTime int) (*model.DeliveryPartner, error)
	GetByUserID(ctx context.Context, userID int64) (*model.DeliveryPartner, error)
	// GetByUserIDForUpdate locks the profile row until the surrounding transaction ends.
	GetByUserIDForUpdate(ctx context.Context, userID int64) (*model.DeliveryPartner, error)
	List(ctx context.Context, filter model.PartnerFilter) ([]model.DeliveryPartner, error)
	ToggleAvailability(ctx context.Context, userID int64) (*model.DeliveryPartner, error)
	UpdateLocation(ctx context.Context, userID int64, location model.Location) (*model.DeliveryPartner, error)
	// AddActiveOrder appends the order only while the partner is below capacity
	// and does not carry it yet. It returns ErrPartnerAtCapacity otherwise.
	AddActiveOrder(ctx context.Context, userID, orderID int64) error
	// RemoveActiveOrder is idempotent.
	RemoveActiveOrder(ctx context.Context, userID, orderID int64) error
	// ReconcileActiveOrders drops delivered or missing orders from every partner
	// and returns the number of repaired profiles.
	ReconcileActiveOrders(ctx context.Context) (int64, error)
}
