// Package sqlite implements inventory.StockStore on the shared SQLite
// database. One row per tracked product or variant.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ridekraft/storefront/internal/inventory"
	"github.com/ridekraft/storefront/internal/inventory/ledger"
	"github.com/ridekraft/storefront/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS stock_levels (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Exactly one of product_id / variant_id is set (XOR, enforced in code).
    product_id  INTEGER,
    variant_id  INTEGER,

    quantity    INTEGER NOT NULL DEFAULT 0,
    updated_at  TEXT    NOT NULL
);

-- Partial unique indexes give us ON CONFLICT upserts per entity kind.
CREATE UNIQUE INDEX IF NOT EXISTS idx_stock_levels_product
    ON stock_levels(product_id) WHERE product_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_stock_levels_variant
    ON stock_levels(variant_id) WHERE variant_id IS NOT NULL;
`

// StockStore is the SQLite implementation of inventory.StockStore.
type StockStore struct {
	db *sql.DB
}

var _ inventory.StockStore = (*StockStore)(nil)

// New applies the stock schema and returns the store.
func New(db *sql.DB) (*StockStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("stock: apply schema: %w", err)
	}
	return &StockStore{db: db}, nil
}

func (s *StockStore) Quantity(ctx context.Context, ref ledger.EntityRef) (int64, bool, error) {
	if err := ref.Validate(); err != nil {
		return 0, false, err
	}

	q := `SELECT quantity FROM stock_levels WHERE `
	var arg int64
	if ref.IsVariant() {
		q += `variant_id = ?`
		arg = ref.VariantID
	} else {
		q += `product_id = ?`
		arg = ref.ProductID
	}

	var qty int64
	err := storage.FromContext(ctx, s.db).QueryRowContext(ctx, q, arg).Scan(&qty)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("stock: quantity for %s: %w", ref, err)
	}
	return qty, true, nil
}

func (s *StockStore) SetQuantity(ctx context.Context, ref ledger.EntityRef, qty int64) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	var q string
	var arg int64
	if ref.IsVariant() {
		q = `INSERT INTO stock_levels (variant_id, quantity, updated_at) VALUES (?, ?, ?)
		     ON CONFLICT(variant_id) WHERE variant_id IS NOT NULL DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at`
		arg = ref.VariantID
	} else {
		q = `INSERT INTO stock_levels (product_id, quantity, updated_at) VALUES (?, ?, ?)
		     ON CONFLICT(product_id) WHERE product_id IS NOT NULL DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at`
		arg = ref.ProductID
	}

	if _, err := storage.FromContext(ctx, s.db).ExecContext(ctx, q, arg, qty, now); err != nil {
		return fmt.Errorf("stock: set quantity for %s: %w", ref, err)
	}
	return nil
}

func (s *StockStore) Stats(ctx context.Context) (inventory.Stats, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM products),
			COUNT(CASE WHEN quantity > 0 THEN 1 END),
			COUNT(CASE WHEN quantity = 0 THEN 1 END),
			COUNT(CASE WHEN quantity > 0 AND quantity <= ? THEN 1 END)
		FROM stock_levels`

	var st inventory.Stats
	err := storage.FromContext(ctx, s.db).QueryRowContext(ctx, q, inventory.LowStockThreshold).
		Scan(&st.TotalProducts, &st.InStock, &st.OutOfStock, &st.LowStock)
	if err != nil {
		return inventory.Stats{}, fmt.Errorf("stock: stats: %w", err)
	}
	return st, nil
}
