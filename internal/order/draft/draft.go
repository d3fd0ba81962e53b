// Package draft implements the order-builder: an in-progress order held in
// memory while the admin scans items, fills shipping details and reviews
// totals. A draft has no server identity until submission succeeds; it is
// destroyed on submit, cancel, or when the operator abandons the flow.
package draft

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateLineItem rejects a second line with the same
	// (product, variant) key. Quantity changes go through UpdateQuantity.
	ErrDuplicateLineItem = errors.New("draft: line item already in draft")
	// ErrInvalidQuantity rejects quantities below one.
	ErrInvalidQuantity = errors.New("draft: quantity must be at least 1")
	// ErrStockLimitReached rejects additions beyond the availability ceiling
	// captured when the item entered the draft.
	ErrStockLimitReached = errors.New("draft: requested quantity exceeds available stock")
	// ErrEmptyDraft gates leaving the scan step with no items.
	ErrEmptyDraft = errors.New("draft: no items")
	// ErrIncompleteShipping gates the review step until the required
	// shipping fields are filled.
	ErrIncompleteShipping = errors.New("draft: shipping info incomplete")
	// ErrNegativeTotal rejects adjustment combinations that drive the grand
	// total below zero.
	ErrNegativeTotal = errors.New("draft: total below zero")
	// ErrSubmitToComplete is returned when Advance is called at the review
	// step; only a successful submission moves the draft forward from there.
	ErrSubmitToComplete = errors.New("draft: submit to complete the order")
)

// Step is a position in the order-building flow.
// The flow is scan → shipping → review → submitted; backward moves are
// always allowed and lossless, forward moves are gated, and no step can be
// skipped.
type Step string

const (
	StepScan      Step = "scan"
	StepShipping  Step = "shipping"
	StepReview    Step = "review"
	StepSubmitted Step = "submitted"
)

// ItemKey is the uniqueness key for a line: a variant when set, otherwise
// the bare product.
type ItemKey struct {
	ProductID int64
	VariantID int64
}

// LineItem is one product or variant row in the draft. Name, SKU and price
// are denormalized snapshots taken at add-time, so the invoice shows what
// the operator saw even if the catalog changes afterwards.
type LineItem struct {
	ProductID      int64
	VariantID      int64 // 0 when the product has no variants
	ProductName    string
	ProductSKU     string
	ProductBarcode string
	VariantName    string
	VariantOptions map[string]string
	ProductImage   string

	UnitPrice decimal.Decimal
	Quantity  int64
	Discount  decimal.Decimal // per-line, absolute

	// AvailableQty is the stock ceiling captured when the item was added.
	// It is deliberately not refreshed on later quantity edits: the backend
	// transaction at submission is the authority, and a stale ceiling only
	// delays the rejection until then.
	AvailableQty int64
	// Tracked is false for products that skip stock accounting; such lines
	// have no ceiling.
	Tracked bool
}

func (li LineItem) Key() ItemKey {
	return ItemKey{ProductID: li.ProductID, VariantID: li.VariantID}
}

// LineTotal is unitPrice × quantity − discount.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(li.Quantity)).Sub(li.Discount)
}

// ShippingInfo is the delivery address block. Complete() is the gate between
// the shipping and review steps.
type ShippingInfo struct {
	CustomerName         string `json:"customer_name"`
	Email                string `json:"email,omitempty"`
	Phone                string `json:"phone"`
	AddressLine1         string `json:"address_line1"`
	AddressLine2         string `json:"address_line2,omitempty"`
	City                 string `json:"city"`
	State                string `json:"state"`
	PostalCode           string `json:"postal_code"`
	Country              string `json:"country,omitempty"`
	Landmark             string `json:"landmark,omitempty"`
	DeliveryInstructions string `json:"delivery_instructions,omitempty"`
}

// Complete reports whether all required fields are non-empty after trimming.
// Re-evaluated on every change; nothing is memoized.
func (s ShippingInfo) Complete() bool {
	for _, f := range []string{s.CustomerName, s.Phone, s.AddressLine1, s.City, s.State, s.PostalCode} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// PaymentInfo records how the order will be paid.
type PaymentInfo struct {
	Method string `json:"method,omitempty"` // cash, upi, card, ...
	Status string `json:"status,omitempty"` // pending, paid, refunded
}

// Draft is the order-in-progress aggregate. It is not safe for concurrent
// use; each draft belongs to a single admin session and all mutations happen
// on that session's request path.
type Draft struct {
	ID            string
	Items         []LineItem // insertion order == display order
	Shipping      ShippingInfo
	Payment       PaymentInfo
	CustomerNotes string

	DiscountAmount decimal.Decimal
	ShippingCost   decimal.Decimal
	TaxAmount      decimal.Decimal

	Step      Step
	CreatedAt time.Time
}

// New returns an empty draft positioned at the scan step.
func New(id string) *Draft {
	return &Draft{
		ID:        id,
		Step:      StepScan,
		CreatedAt: time.Now().UTC(),
	}
}

// Find returns the line with the given key, or nil.
func (d *Draft) Find(key ItemKey) *LineItem {
	for i := range d.Items {
		if d.Items[i].Key() == key {
			return &d.Items[i]
		}
	}
	return nil
}

// QuantityOf returns the quantity already in the draft for an entity,
// zero when absent. This feeds the availability check on add.
func (d *Draft) QuantityOf(key ItemKey) int64 {
	if li := d.Find(key); li != nil {
		return li.Quantity
	}
	return 0
}

// AddItem appends a new line, preserving insertion order.
//
// A line with the same (product, variant) key is rejected, never merged:
// merging would silently bypass the ceiling captured at add-time, and the
// two add paths (scan and search) must behave identically. Callers wanting
// "one more of the same" use UpdateQuantity, which clamps.
func (d *Draft) AddItem(li LineItem) error {
	if li.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if d.Find(li.Key()) != nil {
		return ErrDuplicateLineItem
	}
	if li.Tracked && li.Quantity > li.AvailableQty {
		return ErrStockLimitReached
	}
	d.Items = append(d.Items, li)
	return nil
}

// RemoveItem deletes the matching line. Removing an absent key is a no-op,
// not an error.
func (d *Draft) RemoveItem(key ItemKey) {
	for i := range d.Items {
		if d.Items[i].Key() == key {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets the quantity of an existing line, clamped to
// [1, AvailableQty]. Values below one are coerced to one — removal is an
// explicit separate action, never a side effect of a quantity edit.
// It returns the applied quantity, or false when the line does not exist.
func (d *Draft) UpdateQuantity(key ItemKey, newQty int64) (int64, bool) {
	li := d.Find(key)
	if li == nil {
		return 0, false
	}
	if newQty < 1 {
		newQty = 1
	}
	if li.Tracked && newQty > li.AvailableQty {
		newQty = li.AvailableQty
	}
	li.Quantity = newQty
	return newQty, true
}

// Subtotal is Σ(unitPrice × quantity − line discount) over all items,
// accumulated in exact decimal arithmetic. Rounding to the currency's minor
// unit happens at display time, not here.
func (d *Draft) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for i := range d.Items {
		sum = sum.Add(d.Items[i].LineTotal())
	}
	return sum
}

// Total is subtotal − discount + shipping + tax.
func (d *Draft) Total() decimal.Decimal {
	return d.Subtotal().Sub(d.DiscountAmount).Add(d.ShippingCost).Add(d.TaxAmount)
}

// Validate is the pre-submission gate: at least one item and a non-negative
// grand total.
func (d *Draft) Validate() error {
	if len(d.Items) == 0 {
		return ErrEmptyDraft
	}
	if d.Total().IsNegative() {
		return ErrNegativeTotal
	}
	return nil
}

// Advance moves the flow one step forward, enforcing the gates:
// scan→shipping needs at least one item, shipping→review needs complete
// shipping info. The review step only completes through a successful
// submission (MarkSubmitted), never through Advance.
func (d *Draft) Advance() error {
	switch d.Step {
	case StepScan:
		if len(d.Items) == 0 {
			return ErrEmptyDraft
		}
		d.Step = StepShipping
	case StepShipping:
		if !d.Shipping.Complete() {
			return ErrIncompleteShipping
		}
		d.Step = StepReview
	case StepReview:
		return ErrSubmitToComplete
	}
	return nil
}

// Back moves the flow one step backward. Items and field values persist —
// backward navigation never loses data. At the scan step it is a no-op.
func (d *Draft) Back() {
	switch d.Step {
	case StepShipping:
		d.Step = StepScan
	case StepReview:
		d.Step = StepShipping
	}
}

// MarkSubmitted records a successful submission.
func (d *Draft) MarkSubmitted() {
	d.Step = StepSubmitted
}

// Clear resets the draft to an empty scan-step state, keeping its ID.
func (d *Draft) Clear() {
	*d = Draft{ID: d.ID, Step: StepScan, CreatedAt: d.CreatedAt}
}
