package inventory_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridekraft/storefront/internal/catalog"
	catalogsqlite "github.com/ridekraft/storefront/internal/catalog/sqlite"
	"github.com/ridekraft/storefront/internal/inventory"
	"github.com/ridekraft/storefront/internal/inventory/ledger"
	ledgersqlite "github.com/ridekraft/storefront/internal/inventory/ledger/sqlite"
	inventorysqlite "github.com/ridekraft/storefront/internal/inventory/sqlite"
	"github.com/ridekraft/storefront/internal/storage"
)

type testEnv struct {
	svc     *inventory.Service
	catalog *catalogsqlite.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "inventory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cat, err := catalogsqlite.New(db)
	require.NoError(t, err)
	stock, err := inventorysqlite.New(db)
	require.NoError(t, err)
	lg, err := ledgersqlite.New(db)
	require.NoError(t, err)

	return &testEnv{
		svc:     inventory.NewService(stock, lg, storage.NewTxManager(db), nil),
		catalog: cat,
	}
}

func TestSetQuantityFirstWriteIsInitial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ref := ledger.ProductRef(1)

	entry, err := env.svc.SetQuantity(ctx, ref, 10, "opening count")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, ledger.ActionInitial, entry.Action)
	assert.Equal(t, int64(0), entry.Before)
	assert.Equal(t, int64(10), entry.Delta)
	assert.Equal(t, int64(10), entry.After)

	qty, err := env.svc.CurrentQuantity(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(10), qty)
}

func TestSetQuantityLaterWritesAreAdjustments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ref := ledger.ProductRef(1)

	_, err := env.svc.SetQuantity(ctx, ref, 10, "opening count")
	require.NoError(t, err)

	entry, err := env.svc.SetQuantity(ctx, ref, 4, "recount")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, ledger.ActionAdjustment, entry.Action)
	assert.Equal(t, int64(10), entry.Before)
	assert.Equal(t, int64(-6), entry.Delta)
	assert.Equal(t, int64(4), entry.After)
}

func TestSetQuantitySameValueIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ref := ledger.VariantRef(2)

	_, err := env.svc.SetQuantity(ctx, ref, 10, "opening count")
	require.NoError(t, err)

	entry, err := env.svc.SetQuantity(ctx, ref, 10, "same again")
	require.NoError(t, err)
	assert.Nil(t, entry, "setting the current value must not log a movement")

	history, err := env.svc.History(ctx, ref, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSetQuantityRejectsNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ref := ledger.ProductRef(1)

	_, err := env.svc.SetQuantity(ctx, ref, -1, "")
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	history, err := env.svc.History(ctx, ref, 10)
	require.NoError(t, err)
	assert.Empty(t, history, "a rejected write must leave no audit trail")
}

func TestAdjustQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ref := ledger.VariantRef(5)

	_, err := env.svc.SetQuantity(ctx, ref, 10, "opening count")
	require.NoError(t, err)

	entry, err := env.svc.AdjustQuantity(ctx, ref, 5, "restock")
	require.NoError(t, err)
	assert.Equal(t, int64(15), entry.After)

	entry, err = env.svc.AdjustQuantity(ctx, ref, -2, "damaged in transit")
	require.NoError(t, err)
	assert.Equal(t, int64(13), entry.After)

	qty, err := env.svc.CurrentQuantity(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(13), qty)
}

func TestAdjustBeyondStockIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ref := ledger.ProductRef(3)

	_, err := env.svc.SetQuantity(ctx, ref, 2, "opening count")
	require.NoError(t, err)

	_, err = env.svc.AdjustQuantity(ctx, ref, -5, "oops")
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	qty, err := env.svc.CurrentQuantity(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(2), qty, "rejected adjustment must not change stock")

	history, err := env.svc.History(ctx, ref, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1, "only the opening count is on record")
}

func TestAdjustZeroDeltaIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ref := ledger.ProductRef(1)

	entry, err := env.svc.AdjustQuantity(ctx, ref, 0, "")
	require.NoError(t, err)
	assert.Nil(t, entry)

	history, err := env.svc.History(ctx, ref, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

// TestLedgerReplayMatchesCurrentQuantity exercises the reconciliation
// property: summing all deltas from zero reproduces the stock level.
func TestLedgerReplayMatchesCurrentQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ref := ledger.VariantRef(9)

	_, err := env.svc.SetQuantity(ctx, ref, 10, "opening count")
	require.NoError(t, err)
	_, err = env.svc.AdjustQuantity(ctx, ref, 7, "restock")
	require.NoError(t, err)
	_, err = env.svc.SetQuantity(ctx, ref, 12, "recount")
	require.NoError(t, err)
	_, err = env.svc.AdjustQuantity(ctx, ref, -4, "damaged")
	require.NoError(t, err)

	history, err := env.svc.History(ctx, ref, 100)
	require.NoError(t, err)
	require.Len(t, history, 4)

	var replayed int64
	for _, e := range history {
		require.Equal(t, e.After, e.Before+e.Delta, "entry %s breaks the arithmetic invariant", e.UUID)
		replayed += e.Delta
	}

	qty, err := env.svc.CurrentQuantity(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, qty, replayed)

	// Entries chain: each Before equals the previous After (newest first).
	for i := 0; i < len(history)-1; i++ {
		assert.Equal(t, history[i+1].After, history[i].Before)
	}
}

func TestInvalidEntityRefIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SetQuantity(ctx, ledger.EntityRef{}, 5, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidEntity)

	_, err = env.svc.AdjustQuantity(ctx, ledger.EntityRef{ProductID: 1, VariantID: 2}, 1, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidEntity)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"Mug", "Cap", "Pen"} {
		p := &catalog.Product{
			Name:       name,
			SKU:        "SKU-" + name,
			Price:      decimal.RequireFromString("9.99"),
			TrackStock: true,
			IsActive:   true,
		}
		require.NoError(t, env.catalog.CreateProduct(ctx, p))
	}

	_, err := env.svc.SetQuantity(ctx, ledger.ProductRef(1), 20, "")
	require.NoError(t, err)
	_, err = env.svc.SetQuantity(ctx, ledger.ProductRef(2), 3, "")
	require.NoError(t, err)
	_, err = env.svc.SetQuantity(ctx, ledger.ProductRef(3), 5, "")
	require.NoError(t, err)
	_, err = env.svc.SetQuantity(ctx, ledger.ProductRef(3), 0, "sold out")
	require.NoError(t, err)

	st, err := env.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalProducts)
	assert.Equal(t, int64(2), st.InStock)
	assert.Equal(t, int64(1), st.OutOfStock)
	assert.Equal(t, int64(1), st.LowStock, "quantity 3 is at or below the threshold")
}
