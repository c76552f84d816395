package repository

import "context"

// Factory describes access to different domain repositories.
type Factory interface {
	Users() UserRepository
	Partners() PartnerRepository
	Orders() OrderRepository
}

// Set groups repositories bound to the same database session.
type Set struct {
	Users    UserRepository
	Partners PartnerRepository
	Orders   OrderRepository
}

// Transactor runs fn with repositories that share one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Set) error) error
}
