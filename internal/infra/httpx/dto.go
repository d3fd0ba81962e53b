package httpx

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridekraft/storefront/internal/catalog"
	"github.com/ridekraft/storefront/internal/inventory/ledger"
	"github.com/ridekraft/storefront/internal/order"
	"github.com/ridekraft/storefront/internal/order/draft"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AddItemRequest identifies what to add — a barcode or an explicit product
// ID — plus the desired quantity and an optional per-line discount.
type AddItemRequest struct {
	Barcode   string          `json:"barcode,omitempty"`
	ProductID int64           `json:"product_id,omitempty"`
	Quantity  int64           `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"`
}

// ItemKeyRequest addresses an existing line by its (product, variant) key.
type ItemKeyRequest struct {
	ProductID int64 `json:"product_id"`
	VariantID int64 `json:"variant_id,omitempty"`
	Quantity  int64 `json:"quantity,omitempty"`
}

type AdjustmentsRequest struct {
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	CustomerNotes  string          `json:"customer_notes"`
}

type LineItemResponse struct {
	ProductID      int64             `json:"product_id"`
	VariantID      int64             `json:"variant_id,omitempty"`
	ProductName    string            `json:"product_name"`
	ProductSKU     string            `json:"product_sku"`
	ProductBarcode string            `json:"product_barcode,omitempty"`
	VariantName    string            `json:"variant_name,omitempty"`
	VariantOptions map[string]string `json:"variant_options,omitempty"`
	ProductImage   string            `json:"product_image,omitempty"`
	UnitPrice      decimal.Decimal   `json:"unit_price"`
	Quantity       int64             `json:"quantity"`
	Discount       decimal.Decimal   `json:"discount"`
	LineTotal      decimal.Decimal   `json:"line_total"`
	AvailableQty   int64             `json:"available_quantity"`
	Tracked        bool              `json:"tracked"`
}

type DraftResponse struct {
	ID             string             `json:"id"`
	Step           string             `json:"step"`
	Items          []LineItemResponse `json:"items"`
	Shipping       draft.ShippingInfo `json:"shipping"`
	Payment        draft.PaymentInfo  `json:"payment"`
	CustomerNotes  string             `json:"customer_notes,omitempty"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	ShippingCost   decimal.Decimal    `json:"shipping_cost"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	Total          decimal.Decimal    `json:"total"`
}

func mapDraftToResponse(d *draft.Draft) DraftResponse {
	items := make([]LineItemResponse, len(d.Items))
	for i, li := range d.Items {
		items[i] = LineItemResponse{
			ProductID:      li.ProductID,
			VariantID:      li.VariantID,
			ProductName:    li.ProductName,
			ProductSKU:     li.ProductSKU,
			ProductBarcode: li.ProductBarcode,
			VariantName:    li.VariantName,
			VariantOptions: li.VariantOptions,
			ProductImage:   li.ProductImage,
			UnitPrice:      li.UnitPrice,
			Quantity:       li.Quantity,
			Discount:       li.Discount,
			LineTotal:      li.LineTotal(),
			AvailableQty:   li.AvailableQty,
			Tracked:        li.Tracked,
		}
	}
	return DraftResponse{
		ID:             d.ID,
		Step:           string(d.Step),
		Items:          items,
		Shipping:       d.Shipping,
		Payment:        d.Payment,
		CustomerNotes:  d.CustomerNotes,
		DiscountAmount: d.DiscountAmount,
		ShippingCost:   d.ShippingCost,
		TaxAmount:      d.TaxAmount,
		Subtotal:       d.Subtotal(),
		Total:          d.Total(),
	}
}

// DirectItemRequest carries the line of a brand-shipped order. The catalog
// fields are free-form because many drop-shipped products are not in the
// local catalog at all.
type DirectItemRequest struct {
	ProductID      int64               `json:"product_id,omitempty"`
	VariantID      int64               `json:"variant_id,omitempty"`
	ProductName    string              `json:"product_name"`
	ProductSKU     string              `json:"product_sku,omitempty"`
	VariantName    string              `json:"variant_name,omitempty"`
	VariantOptions map[string]string   `json:"variant_options,omitempty"`
	Quantity       int64               `json:"quantity"`
	UnitPrice      decimal.NullDecimal `json:"unit_price,omitempty"`
}

// DirectDetailsRequest sets the brand and shipment metadata of a direct draft.
type DirectDetailsRequest struct {
	BrandID        int64  `json:"brand_id,omitempty"`
	BrandName      string `json:"brand_name,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Notes          string `json:"notes,omitempty"`
	OrderDate      string `json:"order_date,omitempty"` // RFC3339
}

type DirectItemResponse struct {
	ProductID      int64               `json:"product_id,omitempty"`
	VariantID      int64               `json:"variant_id,omitempty"`
	ProductName    string              `json:"product_name"`
	ProductSKU     string              `json:"product_sku,omitempty"`
	VariantName    string              `json:"variant_name,omitempty"`
	VariantOptions map[string]string   `json:"variant_options,omitempty"`
	Quantity       int64               `json:"quantity"`
	UnitPrice      decimal.NullDecimal `json:"unit_price,omitempty"`
}

type DirectDraftResponse struct {
	ID             string               `json:"id"`
	Step           string               `json:"step"`
	Items          []DirectItemResponse `json:"items"`
	Customer       draft.ShippingInfo   `json:"customer"`
	BrandID        int64                `json:"brand_id,omitempty"`
	BrandName      string               `json:"brand_name,omitempty"`
	Carrier        string               `json:"carrier,omitempty"`
	TrackingNumber string               `json:"tracking_number,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	OrderDate      string               `json:"order_date,omitempty"`
}

func mapDirectDraftToResponse(d *draft.DirectDraft) DirectDraftResponse {
	items := make([]DirectItemResponse, len(d.Items))
	for i, di := range d.Items {
		items[i] = DirectItemResponse{
			ProductID:      di.ProductID,
			VariantID:      di.VariantID,
			ProductName:    di.ProductName,
			ProductSKU:     di.ProductSKU,
			VariantName:    di.VariantName,
			VariantOptions: di.VariantOptions,
			Quantity:       di.Quantity,
			UnitPrice:      di.UnitPrice,
		}
	}
	resp := DirectDraftResponse{
		ID:             d.ID,
		Step:           string(d.Step),
		Items:          items,
		Customer:       d.Customer,
		BrandID:        d.BrandID,
		BrandName:      d.BrandName,
		Carrier:        d.Carrier,
		TrackingNumber: d.TrackingNumber,
		Notes:          d.Notes,
	}
	if !d.OrderDate.IsZero() {
		resp.OrderDate = d.OrderDate.UTC().Format(time.RFC3339)
	}
	return resp
}

// CreateOrderRequest is the one-shot wire shape: the whole order in one call,
// run through the same draft aggregate the session flow uses.
type CreateOrderRequest struct {
	Items          []AddItemRequest   `json:"items"`
	Shipping       draft.ShippingInfo `json:"shipping"`
	Payment        draft.PaymentInfo  `json:"payment"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	ShippingCost   decimal.Decimal    `json:"shipping_cost"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	CustomerNotes  string             `json:"customer_notes,omitempty"`
}

type CreateDirectOrderRequest struct {
	Items    []DirectItemRequest `json:"items"`
	Customer draft.ShippingInfo  `json:"customer"`
	DirectDetailsRequest
}

type OrderItemResponse struct {
	ID             int64             `json:"id"`
	ProductID      int64             `json:"product_id"`
	VariantID      int64             `json:"variant_id,omitempty"`
	ProductName    string            `json:"product_name"`
	ProductSKU     string            `json:"product_sku"`
	ProductBarcode string            `json:"product_barcode,omitempty"`
	VariantName    string            `json:"variant_name,omitempty"`
	VariantOptions map[string]string `json:"variant_options,omitempty"`
	ProductImage   string            `json:"product_image,omitempty"`
	UnitPrice      decimal.Decimal   `json:"unit_price"`
	Quantity       int64             `json:"quantity"`
	Discount       decimal.Decimal   `json:"discount"`
	Total          decimal.Decimal   `json:"total"`
}

type OrderResponse struct {
	ID             int64               `json:"id"`
	UUID           string              `json:"uuid"`
	OrderNumber    string              `json:"order_number"`
	Status         string              `json:"status"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	ShippingCost   decimal.Decimal     `json:"shipping_cost"`
	TaxAmount      decimal.Decimal     `json:"tax_amount"`
	Total          decimal.Decimal     `json:"total"`
	Shipping       draft.ShippingInfo  `json:"shipping"`
	Payment        draft.PaymentInfo   `json:"payment"`
	CustomerNotes  string              `json:"customer_notes,omitempty"`
	Items          []OrderItemResponse `json:"items"`
	CreatedAt      string              `json:"created_at"`
	UpdatedAt      string              `json:"updated_at"`
	ShippedAt      *string             `json:"shipped_at,omitempty"`
	DeliveredAt    *string             `json:"delivered_at,omitempty"`
}

func mapOrderToResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:             it.ID,
			ProductID:      it.ProductID,
			VariantID:      it.VariantID,
			ProductName:    it.ProductName,
			ProductSKU:     it.ProductSKU,
			ProductBarcode: it.ProductBarcode,
			VariantName:    it.VariantName,
			VariantOptions: it.VariantOptions,
			ProductImage:   it.ProductImage,
			UnitPrice:      it.UnitPrice,
			Quantity:       it.Quantity,
			Discount:       it.Discount,
			Total:          it.Total,
		}
	}
	return OrderResponse{
		ID:             o.ID,
		UUID:           o.UUID,
		OrderNumber:    o.OrderNumber,
		Status:         string(o.Status),
		Subtotal:       o.Subtotal,
		DiscountAmount: o.DiscountAmount,
		ShippingCost:   o.ShippingCost,
		TaxAmount:      o.TaxAmount,
		Total:          o.Total,
		Shipping:       o.Shipping,
		Payment:        o.Payment,
		CustomerNotes:  o.CustomerNotes,
		Items:          items,
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      o.UpdatedAt.Format(time.RFC3339),
		ShippedAt:      formatOptionalTime(o.ShippedAt),
		DeliveredAt:    formatOptionalTime(o.DeliveredAt),
	}
}

type DirectOrderResponse struct {
	ID             int64                `json:"id"`
	UUID           string               `json:"uuid"`
	OrderNumber    string               `json:"order_number"`
	Status         string               `json:"status"`
	Customer       draft.ShippingInfo   `json:"customer"`
	BrandID        int64                `json:"brand_id,omitempty"`
	BrandName      string               `json:"brand_name,omitempty"`
	Carrier        string               `json:"carrier,omitempty"`
	TrackingNumber string               `json:"tracking_number,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	OrderDate      string               `json:"order_date"`
	Items          []DirectItemResponse `json:"items"`
	CreatedAt      string               `json:"created_at"`
	UpdatedAt      string               `json:"updated_at"`
	ShippedAt      *string              `json:"shipped_at,omitempty"`
	DeliveredAt    *string              `json:"delivered_at,omitempty"`
}

func mapDirectOrderToResponse(o *order.DirectOrder) DirectOrderResponse {
	items := make([]DirectItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = DirectItemResponse{
			ProductID:      it.ProductID,
			VariantID:      it.VariantID,
			ProductName:    it.ProductName,
			ProductSKU:     it.ProductSKU,
			VariantName:    it.VariantName,
			VariantOptions: it.VariantOptions,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
		}
	}
	return DirectOrderResponse{
		ID:             o.ID,
		UUID:           o.UUID,
		OrderNumber:    o.OrderNumber,
		Status:         string(o.Status),
		Customer:       o.Customer,
		BrandID:        o.BrandID,
		BrandName:      o.BrandName,
		Carrier:        o.Carrier,
		TrackingNumber: o.TrackingNumber,
		Notes:          o.Notes,
		OrderDate:      o.OrderDate.Format(time.RFC3339),
		Items:          items,
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      o.UpdatedAt.Format(time.RFC3339),
		ShippedAt:      formatOptionalTime(o.ShippedAt),
		DeliveredAt:    formatOptionalTime(o.DeliveredAt),
	}
}

type ProductResponse struct {
	ID           int64           `json:"id"`
	UUID         string          `json:"uuid"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Barcode      string          `json:"barcode,omitempty"`
	Price        decimal.Decimal `json:"price"`
	PrimaryImage string          `json:"primary_image,omitempty"`
	TrackStock   bool            `json:"track_stock"`
	IsActive     bool            `json:"is_active"`
}

func mapProductToResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		UUID:         p.UUID,
		Name:         p.Name,
		SKU:          p.SKU,
		Barcode:      p.Barcode,
		Price:        p.Price,
		PrimaryImage: p.PrimaryImage,
		TrackStock:   p.TrackStock,
		IsActive:     p.IsActive,
	}
}

// SetQuantityRequest carries an inventory write. Mode "set" records an
// absolute quantity; "adjust" applies quantity as a signed delta.
type SetQuantityRequest struct {
	Quantity int64  `json:"quantity"`
	Mode     string `json:"mode,omitempty"` // set (default) | adjust
	Reason   string `json:"reason,omitempty"`
}

type QuantityResponse struct {
	Entity   string               `json:"entity"`
	Quantity int64                `json:"quantity"`
	Entry    *LedgerEntryResponse `json:"entry,omitempty"` // nil on no-op writes
}

type LedgerEntryResponse struct {
	UUID      string `json:"uuid"`
	Entity    string `json:"entity"`
	Action    string `json:"action"`
	Delta     int64  `json:"delta"`
	Before    int64  `json:"before"`
	After     int64  `json:"after"`
	Reason    string `json:"reason,omitempty"`
	Reference string `json:"reference,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

func mapEntryToResponse(e *ledger.Entry) *LedgerEntryResponse {
	if e == nil {
		return nil
	}
	return &LedgerEntryResponse{
		UUID:      e.UUID,
		Entity:    e.Entity.String(),
		Action:    string(e.Action),
		Delta:     e.Delta,
		Before:    e.Before,
		After:     e.After,
		Reason:    e.Reason,
		Reference: e.Reference,
		TraceID:   e.TraceID,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
