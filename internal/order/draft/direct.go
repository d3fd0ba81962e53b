package draft

import (
	"time"

	"github.com/shopspring/decimal"
)

// DirectItem is one line of a brand-shipped order. Unlike LineItem it has no
// availability ceiling: the seller never holds this inventory.
type DirectItem struct {
	ProductID      int64
	VariantID      int64
	ProductName    string
	ProductSKU     string
	VariantName    string
	VariantOptions map[string]string

	Quantity int64
	// UnitPrice is optional — many brand-shipped orders are recorded without
	// a price because the brand invoices the customer directly.
	UnitPrice decimal.NullDecimal
}

func (di DirectItem) Key() ItemKey {
	return ItemKey{ProductID: di.ProductID, VariantID: di.VariantID}
}

// DirectDraft is the order-builder for brand-shipped (drop-shipped) orders.
// It mirrors Draft's flow but never touches the stock ledger: creating or
// deleting a direct order must leave every quantity unchanged. That is a
// business rule, not an implementation detail — these orders represent
// inventory the seller does not hold.
type DirectDraft struct {
	ID       string
	Items    []DirectItem
	Customer ShippingInfo
	Notes    string

	BrandID        int64
	BrandName      string
	Carrier        string
	TrackingNumber string
	OrderDate      time.Time

	Step      Step
	CreatedAt time.Time
}

// NewDirect returns an empty direct draft at the scan step.
func NewDirect(id string) *DirectDraft {
	return &DirectDraft{
		ID:        id,
		Step:      StepScan,
		CreatedAt: time.Now().UTC(),
	}
}

// Find returns the line with the given key, or nil.
func (d *DirectDraft) Find(key ItemKey) *DirectItem {
	for i := range d.Items {
		if d.Items[i].Key() == key {
			return &d.Items[i]
		}
	}
	return nil
}

// AddItem appends a new line. Any quantity of one or more is accepted —
// there is no stock check — but duplicate keys are rejected exactly as in
// the regular draft.
func (d *DirectDraft) AddItem(di DirectItem) error {
	if di.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if d.Find(di.Key()) != nil {
		return ErrDuplicateLineItem
	}
	d.Items = append(d.Items, di)
	return nil
}

// RemoveItem deletes the matching line; absent keys are a no-op.
func (d *DirectDraft) RemoveItem(key ItemKey) {
	for i := range d.Items {
		if d.Items[i].Key() == key {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets the quantity of an existing line. Values below one
// are coerced to one; there is no upper ceiling.
func (d *DirectDraft) UpdateQuantity(key ItemKey, newQty int64) (int64, bool) {
	di := d.Find(key)
	if di == nil {
		return 0, false
	}
	if newQty < 1 {
		newQty = 1
	}
	di.Quantity = newQty
	return newQty, true
}

// Advance, Back and MarkSubmitted implement the same gated flow as Draft.
func (d *DirectDraft) Advance() error {
	switch d.Step {
	case StepScan:
		if len(d.Items) == 0 {
			return ErrEmptyDraft
		}
		d.Step = StepShipping
	case StepShipping:
		if !d.Customer.Complete() {
			return ErrIncompleteShipping
		}
		d.Step = StepReview
	case StepReview:
		return ErrSubmitToComplete
	}
	return nil
}

func (d *DirectDraft) Back() {
	switch d.Step {
	case StepShipping:
		d.Step = StepScan
	case StepReview:
		d.Step = StepShipping
	}
}

func (d *DirectDraft) MarkSubmitted() {
	d.Step = StepSubmitted
}

// Validate gates submission: at least one item.
func (d *DirectDraft) Validate() error {
	if len(d.Items) == 0 {
		return ErrEmptyDraft
	}
	return nil
}
