package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ridekraft/storefront/internal/catalog"
	"github.com/ridekraft/storefront/internal/inventory"
	"github.com/ridekraft/storefront/internal/inventory/ledger"
	"github.com/ridekraft/storefront/internal/order/draft"
	"github.com/ridekraft/storefront/internal/pkg/cache"
	"github.com/ridekraft/storefront/internal/storage"
)

var (
	// ErrSubmissionRejected wraps any authoritative rejection at submission
	// time (typically stale-stock). The draft is left untouched so the
	// operator can correct and resubmit.
	ErrSubmissionRejected = errors.New("order: submission rejected")
	// ErrInvalidStatus rejects statuses outside the per-flavor fixed sets.
	ErrInvalidStatus = errors.New("order: invalid status")
	// ErrInactiveProduct rejects scanning an inactive product into an order.
	ErrInactiveProduct = errors.New("order: product is inactive")
)

// Service coordinates scanning, submission and order persistence.
type Service struct {
	catalog catalog.Repository
	stock   inventory.StockStore
	ledger  ledger.Repository
	orders  Repository
	tx      storage.TxManager
	cache   cache.Cache // nil-safe: invalidation skipped if nil
}

// NewService wires the order service. c may be nil to skip cache invalidation.
func NewService(cat catalog.Repository, stock inventory.StockStore, lg ledger.Repository, orders Repository, tx storage.TxManager, c cache.Cache) *Service {
	return &Service{catalog: cat, stock: stock, ledger: lg, orders: orders, tx: tx, cache: c}
}

// ScanQuery identifies a product by barcode or by explicit ID.
type ScanQuery struct {
	Barcode   string
	ProductID int64
}

// ScanResult is the denormalized snapshot the order builder captures when an
// item enters the draft: identity, display fields, unit price and the
// availability ceiling at that moment.
type ScanResult struct {
	ProductID      int64             `json:"product_id"`
	VariantID      int64             `json:"variant_id,omitempty"`
	ProductName    string            `json:"product_name"`
	ProductSKU     string            `json:"product_sku"`
	ProductBarcode string            `json:"product_barcode,omitempty"`
	VariantName    string            `json:"variant_name,omitempty"`
	VariantOptions map[string]string `json:"variant_options,omitempty"`
	UnitPrice      decimal.Decimal   `json:"unit_price"`
	AvailableQty   int64             `json:"available_quantity"`
	Tracked        bool              `json:"tracked"`
	ProductImage   string            `json:"product_image,omitempty"`
}

// Scan resolves a barcode or product ID to an addable item. Resolution
// precedence follows the storefront's labeling scheme: a variant barcode
// wins; a product barcode on a multi-variant product resolves to its default
// variant; only variant-less products resolve to themselves. Out-of-stock
// items resolve with a zero ceiling rather than failing — the availability
// decision belongs to the draft, not the lookup.
func (s *Service) Scan(ctx context.Context, q ScanQuery) (*ScanResult, error) {
	var product *catalog.Product
	var variant *catalog.Variant

	if q.Barcode != "" {
		v, err := s.catalog.VariantByBarcode(ctx, q.Barcode)
		switch {
		case err == nil:
			variant = v
		case !errors.Is(err, catalog.ErrNotFound):
			return nil, err
		}
		if variant != nil {
			p, err := s.catalog.ProductByID(ctx, variant.ProductID)
			if err != nil {
				return nil, err
			}
			product = p
		}
	}

	if product == nil {
		var err error
		switch {
		case q.ProductID != 0:
			product, err = s.catalog.ProductByID(ctx, q.ProductID)
		case q.Barcode != "":
			product, err = s.catalog.ProductByBarcode(ctx, q.Barcode)
		default:
			return nil, fmt.Errorf("order: scan needs a barcode or product id: %w", catalog.ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
	}

	if !product.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrInactiveProduct, product.Name)
	}

	// A product-level hit on a multi-variant product resolves to the default
	// (or first) variant, because quantity lives per-variant there.
	if variant == nil {
		variants, err := s.catalog.VariantsOfProduct(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		if len(variants) > 0 {
			variant = &variants[0] // ordered is_default DESC, id
		}
	}

	res := &ScanResult{
		ProductID:      product.ID,
		ProductName:    product.Name,
		ProductSKU:     product.SKU,
		ProductBarcode: product.Barcode,
		UnitPrice:      product.Price,
		Tracked:        product.TrackStock,
		ProductImage:   product.PrimaryImage,
	}

	ref := ledger.ProductRef(product.ID)
	if variant != nil {
		res.VariantID = variant.ID
		res.ProductSKU = variant.SKU
		res.ProductBarcode = variant.Barcode
		res.VariantName = variant.Name
		res.VariantOptions = variant.Options
		res.UnitPrice = variant.UnitPrice(product)
		ref = ledger.VariantRef(variant.ID)
	}

	if res.Tracked {
		qty, _, err := s.stock.Quantity(ctx, ref)
		if err != nil {
			return nil, err
		}
		res.AvailableQty = qty
	}
	return res, nil
}

// generateOrderNumber follows the storefront's human-readable scheme. The
// random suffix keeps numbers unique when two orders land in the same second.
func generateOrderNumber(now time.Time) string {
	return "ORD-" + now.Format("20060102-150405") + "-" + shortID()
}

func generateDirectOrderNumber(now time.Time) string {
	return "DO-" + now.Format("20060102-150405") + "-" + shortID()
}

func shortID() string {
	return strings.ToUpper(uuid.NewString()[:4])
}

// Submit turns a draft into a persisted order. Inside one transaction it
// re-checks stock authoritatively, deducts each tracked line and appends
// exactly one order_out ledger entry per deduction, referenced by the order
// number. Any rejection aborts the whole transaction and leaves the draft
// untouched; the caller surfaces the error verbatim and may retry.
func (s *Service) Submit(ctx context.Context, d *draft.Draft) (*Order, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &Order{
		OrderNumber:    generateOrderNumber(now),
		Status:         StatusPending,
		Subtotal:       d.Subtotal(),
		DiscountAmount: d.DiscountAmount,
		ShippingCost:   d.ShippingCost,
		TaxAmount:      d.TaxAmount,
		Total:          d.Total(),
		Shipping:       d.Shipping,
		Payment:        d.Payment,
		CustomerNotes:  d.CustomerNotes,
	}
	for _, li := range d.Items {
		o.Items = append(o.Items, Item{
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
			Total:          li.LineTotal(),
		})
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for _, li := range d.Items {
			if !li.Tracked {
				continue
			}
			ref := ledger.ProductRef(li.ProductID)
			if li.VariantID != 0 {
				ref = ledger.VariantRef(li.VariantID)
			}

			before, _, err := s.stock.Quantity(ctx, ref)
			if err != nil {
				return err
			}
			if before < li.Quantity {
				return fmt.Errorf("%w: insufficient stock for %s: available %d, requested %d",
					ErrSubmissionRejected, li.ProductName, before, li.Quantity)
			}

			if err := s.stock.SetQuantity(ctx, ref, before-li.Quantity); err != nil {
				return err
			}
			entry := ledger.NewEntry(ctx, ref, ledger.ActionOrderOut,
				-li.Quantity, before, "Order "+o.OrderNumber, o.OrderNumber)
			if err := s.ledger.Append(ctx, entry); err != nil {
				return err
			}
		}
		return s.orders.CreateOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	d.MarkSubmitted()
	s.invalidateOrders(ctx)
	slog.InfoContext(ctx, "order submitted", "order_number", o.OrderNumber, "items", len(o.Items), "total", o.Total.String())
	return o, nil
}

// SubmitDirect persists a brand-shipped order. It deliberately performs no
// stock read, no deduction and no ledger append: direct orders are excluded
// from inventory accounting.
func (s *Service) SubmitDirect(ctx context.Context, d *draft.DirectDraft) (*DirectOrder, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	orderDate := d.OrderDate
	if orderDate.IsZero() {
		orderDate = now
	}

	o := &DirectOrder{
		OrderNumber:    generateDirectOrderNumber(now),
		Status:         StatusPending,
		Customer:       d.Customer,
		BrandID:        d.BrandID,
		BrandName:      d.BrandName,
		Carrier:        d.Carrier,
		TrackingNumber: d.TrackingNumber,
		Notes:          d.Notes,
		OrderDate:      orderDate,
	}
	for _, di := range d.Items {
		o.Items = append(o.Items, DirectItem{
			ProductID:      di.ProductID,
			VariantID:      di.VariantID,
			ProductName:    di.ProductName,
			ProductSKU:     di.ProductSKU,
			VariantName:    di.VariantName,
			VariantOptions: di.VariantOptions,
			Quantity:       di.Quantity,
			UnitPrice:      di.UnitPrice,
		})
	}

	if err := s.orders.CreateDirectOrder(ctx, o); err != nil {
		return nil, err
	}

	d.MarkSubmitted()
	s.invalidateOrders(ctx)
	slog.InfoContext(ctx, "direct order submitted", "order_number", o.OrderNumber, "brand", o.BrandName)
	return o, nil
}

func (s *Service) Order(ctx context.Context, id int64) (*Order, error) {
	return s.orders.OrderByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, f ListFilter) ([]Order, error) {
	return s.orders.ListOrders(ctx, f)
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) error {
	if !ValidStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.orders.UpdateOrderStatus(ctx, id, status); err != nil {
		return err
	}
	s.invalidateOrders(ctx)
	return nil
}

func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.invalidateOrders(ctx)
	return nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.orders.OrderStats(ctx)
}

func (s *Service) DirectOrder(ctx context.Context, id int64) (*DirectOrder, error) {
	return s.orders.DirectOrderByID(ctx, id)
}

func (s *Service) ListDirectOrders(ctx context.Context, f ListFilter) ([]DirectOrder, error) {
	return s.orders.ListDirectOrders(ctx, f)
}

func (s *Service) UpdateDirectStatus(ctx context.Context, id int64, status Status) error {
	if !ValidDirectStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.orders.UpdateDirectOrderStatus(ctx, id, status); err != nil {
		return err
	}
	s.invalidateOrders(ctx)
	return nil
}

// DeleteDirectOrder removes a brand-shipped order. Like creation, deletion
// never compensates inventory — there was no deduction to undo.
func (s *Service) DeleteDirectOrder(ctx context.Context, id int64) error {
	if err := s.orders.DeleteDirectOrder(ctx, id); err != nil {
		return err
	}
	s.invalidateOrders(ctx)
	return nil
}

func (s *Service) DirectStats(ctx context.Context) (DirectStats, error) {
	return s.orders.DirectOrderStats(ctx)
}

// invalidateOrders drops the cached dashboard views after any mutation so
// the next read reflects the new state.
func (s *Service) invalidateOrders(ctx context.Context) {
	if s.cache == nil {
		return
	}
	keys := []string{
		s.cache.GenerateKey("stats", "orders"),
		s.cache.GenerateKey("stats", "direct-orders"),
		s.cache.GenerateKey("stats", "inventory"),
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", "error", err)
	}
}
