package draft

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tshirt(qty int64) LineItem {
	return LineItem{
		ProductID:    1,
		VariantID:    10,
		ProductName:  "T-Shirt",
		ProductSKU:   "TS-RED-M",
		UnitPrice:    decimal.RequireFromString("19.99"),
		Quantity:     qty,
		AvailableQty: 5,
		Tracked:      true,
	}
}

func TestAddItemRejectsDuplicateKey(t *testing.T) {
	d := New("d1")
	require.NoError(t, d.AddItem(tshirt(2)))

	err := d.AddItem(tshirt(1))
	assert.ErrorIs(t, err, ErrDuplicateLineItem)
	assert.Len(t, d.Items, 1, "rejected add must not change the draft")
	assert.Equal(t, int64(2), d.Items[0].Quantity)
}

func TestAddItemSameProductDifferentVariantIsDistinct(t *testing.T) {
	d := New("d1")
	require.NoError(t, d.AddItem(tshirt(1)))

	other := tshirt(1)
	other.VariantID = 11
	require.NoError(t, d.AddItem(other))
	assert.Len(t, d.Items, 2)
}

func TestAddItemQuantityBounds(t *testing.T) {
	d := New("d1")

	assert.ErrorIs(t, d.AddItem(tshirt(0)), ErrInvalidQuantity)
	assert.ErrorIs(t, d.AddItem(tshirt(-1)), ErrInvalidQuantity)
	assert.ErrorIs(t, d.AddItem(tshirt(6)), ErrStockLimitReached)
	assert.Empty(t, d.Items)

	require.NoError(t, d.AddItem(tshirt(5)))
}

func TestAddItemUntrackedIgnoresCeiling(t *testing.T) {
	d := New("d1")
	li := tshirt(100)
	li.Tracked = false
	li.AvailableQty = 0
	require.NoError(t, d.AddItem(li))
}

func TestAddItemPreservesInsertionOrder(t *testing.T) {
	d := New("d1")
	for i, v := range []int64{10, 11, 12} {
		li := tshirt(1)
		li.VariantID = v
		require.NoError(t, d.AddItem(li), "item %d", i)
	}
	require.Len(t, d.Items, 3)
	assert.Equal(t, int64(10), d.Items[0].VariantID)
	assert.Equal(t, int64(11), d.Items[1].VariantID)
	assert.Equal(t, int64(12), d.Items[2].VariantID)
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	d := New("d1")
	require.NoError(t, d.AddItem(tshirt(1)))

	d.RemoveItem(ItemKey{ProductID: 99, VariantID: 0})
	assert.Len(t, d.Items, 1)

	d.RemoveItem(tshirt(1).Key())
	assert.Empty(t, d.Items)
}

func TestRemoveThenReAddIsAccepted(t *testing.T) {
	d := New("d1")
	require.NoError(t, d.AddItem(tshirt(5)))

	// The draft holds the full ceiling; re-adding after removal must succeed.
	d.RemoveItem(tshirt(5).Key())
	assert.Equal(t, int64(0), d.QuantityOf(tshirt(5).Key()))
	require.NoError(t, d.AddItem(tshirt(5)))
}

func TestUpdateQuantityClampsToBounds(t *testing.T) {
	d := New("d1")
	require.NoError(t, d.AddItem(tshirt(2)))
	key := tshirt(2).Key()

	applied, ok := d.UpdateQuantity(key, 99)
	require.True(t, ok)
	assert.Equal(t, int64(5), applied, "clamped to the availability ceiling")

	applied, ok = d.UpdateQuantity(key, 0)
	require.True(t, ok)
	assert.Equal(t, int64(1), applied, "never drops below one")

	_, ok = d.UpdateQuantity(ItemKey{ProductID: 42}, 3)
	assert.False(t, ok)
}

func TestSubtotalIsExactDecimal(t *testing.T) {
	d := New("d1")

	a := tshirt(3) // 19.99 * 3 = 59.97
	a.Discount = decimal.RequireFromString("5.00")
	require.NoError(t, d.AddItem(a))

	b := tshirt(3)
	b.VariantID = 11
	b.UnitPrice = decimal.RequireFromString("0.10") // the classic float trap
	require.NoError(t, d.AddItem(b))

	// 59.97 - 5.00 + 0.30
	assert.True(t, d.Subtotal().Equal(decimal.RequireFromString("55.27")),
		"got %s", d.Subtotal())
}

func TestTotalAppliesAdjustments(t *testing.T) {
	d := New("d1")
	require.NoError(t, d.AddItem(tshirt(2))) // 39.98

	d.DiscountAmount = decimal.RequireFromString("10.00")
	d.ShippingCost = decimal.RequireFromString("4.50")
	d.TaxAmount = decimal.RequireFromString("2.00")

	assert.True(t, d.Total().Equal(decimal.RequireFromString("36.48")),
		"got %s", d.Total())
}

func TestValidate(t *testing.T) {
	d := New("d1")
	assert.ErrorIs(t, d.Validate(), ErrEmptyDraft)

	require.NoError(t, d.AddItem(tshirt(1)))
	require.NoError(t, d.Validate())

	d.DiscountAmount = decimal.RequireFromString("100.00")
	assert.ErrorIs(t, d.Validate(), ErrNegativeTotal)
}

func completeShipping() ShippingInfo {
	return ShippingInfo{
		CustomerName: "Asha Verma",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		City:         "Pune",
		State:        "MH",
		PostalCode:   "411001",
	}
}

func TestFlowAdvanceGates(t *testing.T) {
	d := New("d1")
	assert.Equal(t, StepScan, d.Step)

	// Empty draft cannot leave the scan step.
	assert.ErrorIs(t, d.Advance(), ErrEmptyDraft)
	assert.Equal(t, StepScan, d.Step)

	require.NoError(t, d.AddItem(tshirt(1)))
	require.NoError(t, d.Advance())
	assert.Equal(t, StepShipping, d.Step)

	// Incomplete shipping blocks the review step.
	d.Shipping = ShippingInfo{CustomerName: "Asha Verma", Phone: "  "}
	assert.ErrorIs(t, d.Advance(), ErrIncompleteShipping)
	assert.Equal(t, StepShipping, d.Step)

	d.Shipping = completeShipping()
	require.NoError(t, d.Advance())
	assert.Equal(t, StepReview, d.Step)

	// Review only completes through submission.
	assert.ErrorIs(t, d.Advance(), ErrSubmitToComplete)
	assert.Equal(t, StepReview, d.Step)

	d.MarkSubmitted()
	assert.Equal(t, StepSubmitted, d.Step)
}

func TestFlowBackIsLossless(t *testing.T) {
	d := New("d1")
	require.NoError(t, d.AddItem(tshirt(2)))
	require.NoError(t, d.Advance())
	d.Shipping = completeShipping()
	require.NoError(t, d.Advance())

	d.Back()
	assert.Equal(t, StepShipping, d.Step)
	d.Back()
	assert.Equal(t, StepScan, d.Step)
	d.Back() // no-op at the first step
	assert.Equal(t, StepScan, d.Step)

	// Nothing was lost on the way back.
	assert.Len(t, d.Items, 1)
	assert.Equal(t, int64(2), d.Items[0].Quantity)
	assert.True(t, d.Shipping.Complete())
}

func TestShippingCompleteTrimsWhitespace(t *testing.T) {
	s := completeShipping()
	assert.True(t, s.Complete())

	s.PostalCode = "   "
	assert.False(t, s.Complete())

	s.PostalCode = ""
	assert.False(t, s.Complete())
}

func TestClearKeepsIdentity(t *testing.T) {
	d := New("d1")
	require.NoError(t, d.AddItem(tshirt(1)))
	d.Shipping = completeShipping()
	require.NoError(t, d.Advance())

	d.Clear()
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, StepScan, d.Step)
	assert.Empty(t, d.Items)
	assert.False(t, d.Shipping.Complete())
}

func TestDirectDraftHasNoCeiling(t *testing.T) {
	d := NewDirect("dd1")
	require.NoError(t, d.AddItem(DirectItem{ProductName: "Sofa", Quantity: 500}))

	assert.ErrorIs(t, d.AddItem(DirectItem{ProductName: "Sofa", Quantity: 1}),
		ErrDuplicateLineItem)
	assert.ErrorIs(t, d.AddItem(DirectItem{ProductID: 2, Quantity: 0}),
		ErrInvalidQuantity)

	applied, ok := d.UpdateQuantity(DirectItem{}.Key(), -3)
	require.True(t, ok)
	assert.Equal(t, int64(1), applied)
}

func TestDirectDraftFlow(t *testing.T) {
	d := NewDirect("dd1")
	assert.ErrorIs(t, d.Validate(), ErrEmptyDraft)
	assert.ErrorIs(t, d.Advance(), ErrEmptyDraft)

	require.NoError(t, d.AddItem(DirectItem{ProductName: "Sofa", Quantity: 1}))
	require.NoError(t, d.Advance())
	assert.ErrorIs(t, d.Advance(), ErrIncompleteShipping)

	d.Customer = completeShipping()
	require.NoError(t, d.Advance())
	assert.ErrorIs(t, d.Advance(), ErrSubmitToComplete)

	d.Back()
	assert.Equal(t, StepShipping, d.Step)
	require.NoError(t, d.Advance())
	d.MarkSubmitted()
	assert.Equal(t, StepSubmitted, d.Step)
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()

	d := s.Create()
	require.NotEmpty(t, d.ID)
	got, err := s.Get(d.ID)
	require.NoError(t, err)
	assert.Same(t, d, got)

	dd := s.CreateDirect()
	gotDirect, err := s.GetDirect(dd.ID)
	require.NoError(t, err)
	assert.Same(t, dd, gotDirect)

	// The two namespaces do not leak into each other.
	_, err = s.Get(dd.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)

	s.Delete(d.ID)
	_, err = s.Get(d.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)

	s.Delete("never-existed") // no-op
}
