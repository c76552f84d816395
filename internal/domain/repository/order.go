package repository

import (
	"context"
	"time"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	Create(ctx context.Context, order model.NewOrder) (*model.Order, error)
	GetByCode(ctx context.Context, code string) (*model.Order, error)
	// GetByCodeForUpdate locks the order row until the surrounding transaction ends.
	GetByCodeForUpdate(ctx context.Context, code string) (*model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)
	// CodesByID resolves public order codes; unknown ids are skipped.
	CodesByID(ctx context.Context, ids []int64) ([]string, error)
	// Assign sets partner and schedule only for unassigned PREP orders and
	// returns ErrOrderAlreadyAssigned otherwise.
	Assign(ctx context.Context, orderID, partnerID int64, schedule model.Schedule) error
	// UpdateStatus moves the order from one status to another and returns
	// ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus, at time.Time) error
	// ClaimOverdue marks up to limit late, undelivered orders as reported and returns them.
	ClaimOverdue(ctx context.Context, now time.Time, limit int) ([]model.Order, error)
}
