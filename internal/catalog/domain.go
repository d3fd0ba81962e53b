// Package catalog holds the product and variant entities and the repository
// port for looking them up by ID, SKU or barcode.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the root catalog entity. A product that has variants stops
// tracking stock at the product level; quantity lives per variant.
type Product struct {
	ID           int64
	UUID         string
	Name         string
	SKU          string
	Barcode      string
	Price        decimal.Decimal
	PrimaryImage string

	// TrackStock disables ledger accounting when false (e.g. made-to-order
	// items). Orders for such products skip the availability check.
	TrackStock bool

	// Inactive products stay visible in admin searches (include_hidden) but
	// cannot be scanned into an order.
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Variant is one sellable variation of a product ("Red / Large"). It carries
// its own SKU and barcode and its own stock ledger, independent of the parent.
type Variant struct {
	ID        int64
	UUID      string
	ProductID int64
	Name      string
	SKU       string
	Barcode   string

	// Options holds the variation axes, e.g. {"color": "Red", "size": "L"}.
	Options map[string]string

	// Price overrides the parent product price when valid.
	Price decimal.NullDecimal

	// IsDefault marks the variant used when a product-level barcode is
	// scanned for a multi-variant product.
	IsDefault bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UnitPrice returns the variant price override when set, otherwise the
// parent product price.
func (v *Variant) UnitPrice(parent *Product) decimal.Decimal {
	if v.Price.Valid {
		return v.Price.Decimal
	}
	return parent.Price
}
