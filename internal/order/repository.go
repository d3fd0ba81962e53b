package order

import (
	"context"
	"errors"
)

// ErrNotFound is returned for unknown order IDs.
var ErrNotFound = errors.New("order: not found")

// ListFilter narrows and pages list queries. Page numbers start at one;
// results are newest first.
type ListFilter struct {
	Status   Status // empty = all
	Page     int
	PageSize int
}

// Repository is the port for order persistence. The write methods
// participate in an enclosing storage.TxManager transaction when present,
// which is how submission makes the stock deduction and the order insert
// atomic.
type Repository interface {
	CreateOrder(ctx context.Context, o *Order) error
	OrderByID(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, f ListFilter) ([]Order, error)
	// UpdateOrderStatus sets the status and stamps shipped_at/delivered_at
	// on the first transition into those states.
	UpdateOrderStatus(ctx context.Context, id int64, status Status) error
	DeleteOrder(ctx context.Context, id int64) error
	OrderStats(ctx context.Context) (Stats, error)

	CreateDirectOrder(ctx context.Context, o *DirectOrder) error
	DirectOrderByID(ctx context.Context, id int64) (*DirectOrder, error)
	ListDirectOrders(ctx context.Context, f ListFilter) ([]DirectOrder, error)
	UpdateDirectOrderStatus(ctx context.Context, id int64, status Status) error
	DeleteDirectOrder(ctx context.Context, id int64) error
	DirectOrderStats(ctx context.Context) (DirectStats, error)
}
