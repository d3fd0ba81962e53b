package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a product or variant does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Repository is the port for catalog lookups. The order service depends on
// this abstraction, not on SQLite directly, so tests can swap in fakes.
type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error
	CreateVariant(ctx context.Context, v *Variant) error

	ProductByID(ctx context.Context, id int64) (*Product, error)
	ProductBySKU(ctx context.Context, sku string) (*Product, error)
	ProductByBarcode(ctx context.Context, barcode string) (*Product, error)
	VariantByID(ctx context.Context, id int64) (*Variant, error)
	VariantBySKU(ctx context.Context, sku string) (*Variant, error)
	VariantByBarcode(ctx context.Context, barcode string) (*Variant, error)
	VariantsOfProduct(ctx context.Context, productID int64) ([]Variant, error)

	// Search matches query case-insensitively against name, SKU and barcode.
	// Inactive products are excluded unless includeHidden is set.
	Search(ctx context.Context, query string, limit int, includeHidden bool) ([]Product, error)
}
