package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridekraft/storefront/internal/catalog"
	"github.com/ridekraft/storefront/internal/storage"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := New(db)
	require.NoError(t, err)
	return repo
}

func TestProductRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := &catalog.Product{
		Name:       "Blue Mug",
		SKU:        "MUG-BLU",
		Barcode:    "890100000001",
		Price:      decimal.RequireFromString("12.50"),
		TrackStock: true,
		IsActive:   true,
	}
	require.NoError(t, repo.CreateProduct(ctx, p))
	require.NotZero(t, p.ID)
	require.NotEmpty(t, p.UUID)

	byID, err := repo.ProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blue Mug", byID.Name)
	assert.True(t, byID.Price.Equal(p.Price))
	assert.True(t, byID.TrackStock)

	bySKU, err := repo.ProductBySKU(ctx, "MUG-BLU")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySKU.ID)

	byBarcode, err := repo.ProductByBarcode(ctx, "890100000001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byBarcode.ID)

	_, err = repo.ProductByID(ctx, 999)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = repo.ProductByBarcode(ctx, "no-such")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestProductsWithoutBarcodeDoNotCollide(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Empty barcodes are stored as NULL, so two of them never violate the
	// unique index.
	for _, sku := range []string{"A", "B"} {
		p := &catalog.Product{Name: sku, SKU: sku, Price: decimal.Zero, IsActive: true}
		require.NoError(t, repo.CreateProduct(ctx, p))
	}
}

func TestVariantRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := &catalog.Product{
		Name: "Shirt", SKU: "SHIRT",
		Price: decimal.RequireFromString("19.99"), IsActive: true,
	}
	require.NoError(t, repo.CreateProduct(ctx, p))

	v := &catalog.Variant{
		ProductID: p.ID,
		Name:      "Red / L",
		SKU:       "SHIRT-RED-L",
		Barcode:   "890100000002",
		Options:   map[string]string{"color": "Red", "size": "L"},
		Price:     decimal.NewNullDecimal(decimal.RequireFromString("21.99")),
	}
	require.NoError(t, repo.CreateVariant(ctx, v))

	got, err := repo.VariantByBarcode(ctx, "890100000002")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ProductID)
	assert.Equal(t, map[string]string{"color": "Red", "size": "L"}, got.Options)
	require.True(t, got.Price.Valid)
	assert.True(t, got.UnitPrice(p).Equal(decimal.RequireFromString("21.99")))

	bySKU, err := repo.VariantBySKU(ctx, "SHIRT-RED-L")
	require.NoError(t, err)
	assert.Equal(t, v.ID, bySKU.ID)

	// Without an override the variant inherits the parent price.
	plain := &catalog.Variant{ProductID: p.ID, Name: "Blue / L"}
	require.NoError(t, repo.CreateVariant(ctx, plain))
	got, err = repo.VariantByID(ctx, plain.ID)
	require.NoError(t, err)
	assert.False(t, got.Price.Valid)
	assert.True(t, got.UnitPrice(p).Equal(p.Price))
}

func TestVariantsOfProductDefaultFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := &catalog.Product{Name: "Shirt", SKU: "SHIRT", Price: decimal.Zero, IsActive: true}
	require.NoError(t, repo.CreateProduct(ctx, p))

	for _, v := range []*catalog.Variant{
		{ProductID: p.ID, Name: "S"},
		{ProductID: p.ID, Name: "M", IsDefault: true},
		{ProductID: p.ID, Name: "L"},
	} {
		require.NoError(t, repo.CreateVariant(ctx, v))
	}

	variants, err := repo.VariantsOfProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, variants, 3)
	assert.Equal(t, "M", variants[0].Name, "the default variant sorts first")
}

func TestSearch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []struct {
		name, sku, barcode string
		active             bool
	}{
		{"Blue Mug", "MUG-BLU", "890100000001", true},
		{"Red Mug", "MUG-RED", "890100000002", true},
		{"Retired Mug", "MUG-OLD", "", false},
		{"Cap", "CAP-1", "890100000003", true},
	}
	for _, s := range seed {
		p := &catalog.Product{Name: s.name, SKU: s.sku, Barcode: s.barcode,
			Price: decimal.Zero, IsActive: s.active}
		require.NoError(t, repo.CreateProduct(ctx, p))
	}

	// Case-insensitive name match, hidden excluded by default.
	found, err := repo.Search(ctx, "mug", 10, false)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.Search(ctx, "mug", 10, true)
	require.NoError(t, err)
	assert.Len(t, found, 3)

	// SKU and barcode are searchable too.
	found, err = repo.Search(ctx, "CAP-1", 10, false)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Cap", found[0].Name)

	found, err = repo.Search(ctx, "890100000002", 10, false)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Red Mug", found[0].Name)

	// LIKE metacharacters in the query are literals, not wildcards.
	found, err = repo.Search(ctx, "%", 10, true)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = repo.Search(ctx, "mug", 1, false)
	require.NoError(t, err)
	assert.Len(t, found, 1, "limit is honored")
}
