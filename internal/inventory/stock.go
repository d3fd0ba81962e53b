package inventory

import (
	"context"

	"github.com/ridekraft/storefront/internal/inventory/ledger"
)

// StockStore is the port for reading and writing current quantities.
// The ledger records how a quantity got where it is; the stock store holds
// where it is now. The two are written together inside one transaction.
type StockStore interface {
	// Quantity returns the current quantity for a product or variant.
	// Entities with no recorded stock report zero; exists is false until the
	// first write, so callers can distinguish "never tracked" from "sold out".
	Quantity(ctx context.Context, ref ledger.EntityRef) (qty int64, exists bool, err error)

	// SetQuantity upserts the current quantity.
	SetQuantity(ctx context.Context, ref ledger.EntityRef, qty int64) error

	// Stats aggregates stock levels for the admin dashboard.
	Stats(ctx context.Context) (Stats, error)
}

// Stats is the inventory dashboard summary.
type Stats struct {
	TotalProducts int64 `json:"total_products"`
	InStock       int64 `json:"in_stock"`
	OutOfStock    int64 `json:"out_of_stock"`
	LowStock      int64 `json:"low_stock"`
}

// LowStockThreshold is the quantity at or below which an in-stock entity
// counts as low stock.
const LowStockThreshold = 5
