// Package order implements order submission and persistence: regular orders
// that deduct stock through the ledger, and direct (brand-shipped) orders
// that never touch inventory.
package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridekraft/storefront/internal/order/draft"
)

// Status is the lifecycle state of a persisted order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPacked     Status = "packed" // regular orders only
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// orderStatuses and directStatuses are the fixed per-flavor sets; direct
// orders have no packing stage because the brand ships them.
var orderStatuses = map[Status]bool{
	StatusPending: true, StatusProcessing: true, StatusPacked: true,
	StatusShipped: true, StatusDelivered: true, StatusCancelled: true,
}

var directStatuses = map[Status]bool{
	StatusPending: true, StatusProcessing: true,
	StatusShipped: true, StatusDelivered: true, StatusCancelled: true,
}

func ValidStatus(s Status) bool       { return orderStatuses[s] }
func ValidDirectStatus(s Status) bool { return directStatuses[s] }

// Item is a persisted order line: the draft line's snapshot plus the
// computed line total.
type Item struct {
	ID             int64
	ProductID      int64
	VariantID      int64
	ProductName    string
	ProductSKU     string
	ProductBarcode string
	VariantName    string
	VariantOptions map[string]string
	ProductImage   string

	UnitPrice decimal.Decimal
	Quantity  int64
	Discount  decimal.Decimal
	Total     decimal.Decimal
}

// Order is a persisted, submitted order.
type Order struct {
	ID          int64
	UUID        string
	OrderNumber string
	Status      Status

	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	ShippingCost   decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal

	Shipping      draft.ShippingInfo
	Payment       draft.PaymentInfo
	CustomerNotes string

	Items []Item

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
}

// DirectItem is a persisted line of a brand-shipped order.
type DirectItem struct {
	ID             int64
	ProductID      int64
	VariantID      int64
	ProductName    string
	ProductSKU     string
	VariantName    string
	VariantOptions map[string]string

	Quantity  int64
	UnitPrice decimal.NullDecimal
}

// DirectOrder is a persisted brand-shipped order. It carries the carrier and
// tracking details instead of money fields; the brand invoices the customer.
type DirectOrder struct {
	ID          int64
	UUID        string
	OrderNumber string
	Status      Status

	Customer  draft.ShippingInfo
	BrandID   int64
	BrandName string

	Carrier        string
	TrackingNumber string
	Notes          string
	OrderDate      time.Time

	Items []DirectItem

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
}

// Stats is the order dashboard summary. Revenue excludes cancelled orders.
type Stats struct {
	TotalOrders  int64            `json:"total_orders"`
	TodayOrders  int64            `json:"today_orders"`
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
	StatusCounts map[Status]int64 `json:"status_counts"`
}

// DirectStats mirrors Stats without revenue (direct orders carry no totals).
type DirectStats struct {
	TotalOrders  int64            `json:"total_orders"`
	TodayOrders  int64            `json:"today_orders"`
	StatusCounts map[Status]int64 `json:"status_counts"`
}
