// Package sqlite provides the SQLite-backed implementation of
// catalog.Repository. Timestamps are stored as RFC3339 TEXT (SQLite has no
// native datetime type) and prices as decimal strings.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ridekraft/storefront/internal/catalog"
	"github.com/ridekraft/storefront/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid           TEXT    NOT NULL UNIQUE,
    name           TEXT    NOT NULL,
    sku            TEXT    NOT NULL UNIQUE,
    barcode        TEXT,
    price          TEXT    NOT NULL,
    primary_image  TEXT    NOT NULL DEFAULT '',
    track_stock    INTEGER NOT NULL DEFAULT 1,
    is_active      INTEGER NOT NULL DEFAULT 1,
    created_at     TEXT    NOT NULL,
    updated_at     TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_products_barcode ON products(barcode);

CREATE TABLE IF NOT EXISTS variants (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid        TEXT    NOT NULL UNIQUE,
    product_id  INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    name        TEXT    NOT NULL,
    sku         TEXT,
    barcode     TEXT,

    -- Variation axes as a JSON object, e.g. {"color":"Red","size":"L"}.
    options     TEXT    NOT NULL DEFAULT '{}',

    -- NULL means "inherit the parent product price".
    price       TEXT,

    is_default  INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT    NOT NULL,
    updated_at  TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_variants_product ON variants(product_id, is_default DESC, id);
CREATE INDEX IF NOT EXISTS idx_variants_barcode ON variants(barcode);
`

// Repository is the SQLite implementation of catalog.Repository.
type Repository struct {
	db *sql.DB
}

var _ catalog.Repository = (*Repository)(nil)

// New applies the catalog schema and returns the repository.
// Idempotent due to IF NOT EXISTS.
func New(db *sql.DB) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *catalog.Product) error {
	if p.UUID == "" {
		p.UUID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	const q = `
		INSERT INTO products (uuid, name, sku, barcode, price, primary_image, track_stock, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := storage.FromContext(ctx, r.db).ExecContext(ctx, q,
		p.UUID, p.Name, p.SKU, nullable(p.Barcode), p.Price.String(), p.PrimaryImage,
		boolToInt(p.TrackStock), boolToInt(p.IsActive),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("catalog: create product %q: %w", p.SKU, err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (r *Repository) CreateVariant(ctx context.Context, v *catalog.Variant) error {
	if v.UUID == "" {
		v.UUID = uuid.NewString()
	}
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now

	opts, err := json.Marshal(v.Options)
	if err != nil {
		return fmt.Errorf("catalog: marshal options: %w", err)
	}

	var price any
	if v.Price.Valid {
		price = v.Price.Decimal.String()
	}

	const q = `
		INSERT INTO variants (uuid, product_id, name, sku, barcode, options, price, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := storage.FromContext(ctx, r.db).ExecContext(ctx, q,
		v.UUID, v.ProductID, v.Name, nullable(v.SKU), nullable(v.Barcode),
		string(opts), price, boolToInt(v.IsDefault),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("catalog: create variant %q: %w", v.Name, err)
	}
	v.ID, err = res.LastInsertId()
	return err
}

const productCols = `id, uuid, name, sku, COALESCE(barcode,''), price, primary_image, track_stock, is_active, created_at, updated_at`

func (r *Repository) ProductByID(ctx context.Context, id int64) (*catalog.Product, error) {
	row := storage.FromContext(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return scanProduct(row)
}

func (r *Repository) ProductBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	row := storage.FromContext(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+productCols+` FROM products WHERE sku = ?`, sku)
	return scanProduct(row)
}

func (r *Repository) ProductByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	row := storage.FromContext(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+productCols+` FROM products WHERE barcode = ?`, barcode)
	return scanProduct(row)
}

const variantCols = `id, uuid, product_id, name, COALESCE(sku,''), COALESCE(barcode,''), options, price, is_default, created_at, updated_at`

func (r *Repository) VariantByID(ctx context.Context, id int64) (*catalog.Variant, error) {
	row := storage.FromContext(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+variantCols+` FROM variants WHERE id = ?`, id)
	return scanVariant(row)
}

func (r *Repository) VariantBySKU(ctx context.Context, sku string) (*catalog.Variant, error) {
	row := storage.FromContext(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+variantCols+` FROM variants WHERE sku = ?`, sku)
	return scanVariant(row)
}

func (r *Repository) VariantByBarcode(ctx context.Context, barcode string) (*catalog.Variant, error) {
	row := storage.FromContext(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+variantCols+` FROM variants WHERE barcode = ?`, barcode)
	return scanVariant(row)
}

func (r *Repository) VariantsOfProduct(ctx context.Context, productID int64) ([]catalog.Variant, error) {
	rows, err := storage.FromContext(ctx, r.db).QueryContext(ctx,
		`SELECT `+variantCols+` FROM variants WHERE product_id = ? ORDER BY is_default DESC, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("catalog: variants of product %d: %w", productID, err)
	}
	defer rows.Close()

	var out []catalog.Variant
	for rows.Next() {
		v, err := scanVariantRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (r *Repository) Search(ctx context.Context, query string, limit int, includeHidden bool) ([]catalog.Product, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + productCols + ` FROM products
	      WHERE (name LIKE ? ESCAPE '\' OR sku LIKE ? ESCAPE '\' OR barcode LIKE ? ESCAPE '\')`
	if !includeHidden {
		q += ` AND is_active = 1`
	}
	q += ` ORDER BY name LIMIT ?`

	pattern := "%" + escapeLike(query) + "%"
	rows, err := storage.FromContext(ctx, r.db).QueryContext(ctx, q, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search %q: %w", query, err)
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		p, err := scanProductRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row *sql.Row) (*catalog.Product, error) {
	p, err := scanProductFrom(row)
	if err == sql.ErrNoRows {
		return nil, catalog.ErrNotFound
	}
	return p, err
}

func scanProductRows(rows *sql.Rows) (*catalog.Product, error) {
	return scanProductFrom(rows)
}

func scanProductFrom(s rowScanner) (*catalog.Product, error) {
	var p catalog.Product
	var price, createdAt, updatedAt string
	var trackStock, isActive int
	err := s.Scan(&p.ID, &p.UUID, &p.Name, &p.SKU, &p.Barcode, &price,
		&p.PrimaryImage, &trackStock, &isActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("catalog: parse price %q: %w", price, err)
	}
	p.TrackStock = trackStock != 0
	p.IsActive = isActive != 0
	if p.CreatedAt, err = parseRFC3339(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseRFC3339(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanVariant(row *sql.Row) (*catalog.Variant, error) {
	v, err := scanVariantFrom(row)
	if err == sql.ErrNoRows {
		return nil, catalog.ErrNotFound
	}
	return v, err
}

func scanVariantRows(rows *sql.Rows) (*catalog.Variant, error) {
	return scanVariantFrom(rows)
}

func scanVariantFrom(s rowScanner) (*catalog.Variant, error) {
	var v catalog.Variant
	var opts, createdAt, updatedAt string
	var price sql.NullString
	var isDefault int
	err := s.Scan(&v.ID, &v.UUID, &v.ProductID, &v.Name, &v.SKU, &v.Barcode,
		&opts, &price, &isDefault, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(opts), &v.Options); err != nil {
		return nil, fmt.Errorf("catalog: parse options %q: %w", opts, err)
	}
	if price.Valid {
		d, err := decimal.NewFromString(price.String)
		if err != nil {
			return nil, fmt.Errorf("catalog: parse variant price %q: %w", price.String, err)
		}
		v.Price = decimal.NewNullDecimal(d)
	}
	v.IsDefault = isDefault != 0
	if v.CreatedAt, err = parseRFC3339(createdAt); err != nil {
		return nil, err
	}
	if v.UpdatedAt, err = parseRFC3339(updatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("catalog: parse time %q: %w", s, err)
	}
	return t, nil
}

// nullable returns nil for empty strings so SQLite stores NULL and the
// UNIQUE barcode/sku indexes ignore unset values.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
