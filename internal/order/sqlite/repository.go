// Package sqlite implements order.Repository on the shared SQLite database.
// Orders and their items live in separate tables; address and payment blocks
// and variant options are stored as JSON TEXT, money as decimal strings.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ridekraft/storefront/internal/order"
	"github.com/ridekraft/storefront/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid            TEXT    NOT NULL UNIQUE,
    order_number    TEXT    NOT NULL UNIQUE,
    status          TEXT    NOT NULL,

    subtotal        TEXT    NOT NULL,
    discount_amount TEXT    NOT NULL,
    shipping_cost   TEXT    NOT NULL,
    tax_amount      TEXT    NOT NULL,
    total           TEXT    NOT NULL,

    shipping_info   TEXT    NOT NULL,
    payment_info    TEXT    NOT NULL,
    customer_notes  TEXT    NOT NULL DEFAULT '',

    created_at      TEXT    NOT NULL,
    updated_at      TEXT    NOT NULL,
    shipped_at      TEXT,
    delivered_at    TEXT
);

CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at DESC);

CREATE TABLE IF NOT EXISTS order_items (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id        INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    product_id      INTEGER NOT NULL,
    variant_id      INTEGER,
    product_name    TEXT    NOT NULL,
    product_sku     TEXT    NOT NULL,
    product_barcode TEXT    NOT NULL DEFAULT '',
    variant_name    TEXT    NOT NULL DEFAULT '',
    variant_options TEXT    NOT NULL DEFAULT '{}',
    product_image   TEXT    NOT NULL DEFAULT '',
    unit_price      TEXT    NOT NULL,
    quantity        INTEGER NOT NULL,
    discount        TEXT    NOT NULL,
    total           TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

CREATE TABLE IF NOT EXISTS direct_orders (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid            TEXT    NOT NULL UNIQUE,
    order_number    TEXT    NOT NULL UNIQUE,
    status          TEXT    NOT NULL,

    customer_info   TEXT    NOT NULL,
    brand_id        INTEGER,
    brand_name      TEXT    NOT NULL DEFAULT '',
    carrier         TEXT    NOT NULL DEFAULT '',
    tracking_number TEXT    NOT NULL DEFAULT '',
    notes           TEXT    NOT NULL DEFAULT '',
    order_date      TEXT    NOT NULL,

    created_at      TEXT    NOT NULL,
    updated_at      TEXT    NOT NULL,
    shipped_at      TEXT,
    delivered_at    TEXT
);

CREATE INDEX IF NOT EXISTS idx_direct_orders_status ON direct_orders(status, order_date DESC);

CREATE TABLE IF NOT EXISTS direct_order_items (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id        INTEGER NOT NULL REFERENCES direct_orders(id) ON DELETE CASCADE,
    product_id      INTEGER,
    variant_id      INTEGER,
    product_name    TEXT    NOT NULL,
    product_sku     TEXT    NOT NULL DEFAULT '',
    variant_name    TEXT    NOT NULL DEFAULT '',
    variant_options TEXT    NOT NULL DEFAULT '{}',
    quantity        INTEGER NOT NULL,
    unit_price      TEXT
);

CREATE INDEX IF NOT EXISTS idx_direct_order_items_order ON direct_order_items(order_id);
`

// Repository is the SQLite implementation of order.Repository.
type Repository struct {
	db *sql.DB
}

var _ order.Repository = (*Repository)(nil)

// New applies the orders schema and returns the repository.
func New(db *sql.DB) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("orders: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) CreateOrder(ctx context.Context, o *order.Order) error {
	if o.UUID == "" {
		o.UUID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now

	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("orders: marshal shipping info: %w", err)
	}
	payment, err := json.Marshal(o.Payment)
	if err != nil {
		return fmt.Errorf("orders: marshal payment info: %w", err)
	}

	q := storage.FromContext(ctx, r.db)
	const insOrder = `
		INSERT INTO orders
			(uuid, order_number, status, subtotal, discount_amount, shipping_cost, tax_amount, total,
			 shipping_info, payment_info, customer_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := q.ExecContext(ctx, insOrder,
		o.UUID, o.OrderNumber, string(o.Status),
		o.Subtotal.String(), o.DiscountAmount.String(), o.ShippingCost.String(), o.TaxAmount.String(), o.Total.String(),
		string(shipping), string(payment), o.CustomerNotes,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("orders: create %s: %w", o.OrderNumber, err)
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	const insItem = `
		INSERT INTO order_items
			(order_id, product_id, variant_id, product_name, product_sku, product_barcode,
			 variant_name, variant_options, product_image, unit_price, quantity, discount, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i := range o.Items {
		it := &o.Items[i]
		opts, err := json.Marshal(orEmpty(it.VariantOptions))
		if err != nil {
			return fmt.Errorf("orders: marshal variant options: %w", err)
		}
		res, err := q.ExecContext(ctx, insItem,
			o.ID, it.ProductID, nullableID(it.VariantID), it.ProductName, it.ProductSKU, it.ProductBarcode,
			it.VariantName, string(opts), it.ProductImage,
			it.UnitPrice.String(), it.Quantity, it.Discount.String(), it.Total.String(),
		)
		if err != nil {
			return fmt.Errorf("orders: create item for %s: %w", o.OrderNumber, err)
		}
		if it.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

const orderCols = `id, uuid, order_number, status, subtotal, discount_amount, shipping_cost, tax_amount, total,
	shipping_info, payment_info, customer_notes, created_at, updated_at, shipped_at, delivered_at`

func (r *Repository) OrderByID(ctx context.Context, id int64) (*order.Order, error) {
	q := storage.FromContext(ctx, r.db)
	row := q.QueryRowContext(ctx, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.itemsOf(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) ListOrders(ctx context.Context, f order.ListFilter) ([]order.Order, error) {
	page, size := pageBounds(f)
	q := `SELECT ` + orderCols + ` FROM orders`
	args := []any{}
	if f.Status != "" {
		q += ` WHERE status = ?`
		args = append(args, string(f.Status))
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, size, (page-1)*size)

	rows, err := storage.FromContext(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = r.itemsOf(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) UpdateOrderStatus(ctx context.Context, id int64, status order.Status) error {
	return r.updateStatus(ctx, "orders", id, status)
}

func (r *Repository) DeleteOrder(ctx context.Context, id int64) error {
	return r.deleteFrom(ctx, "orders", id)
}

func (r *Repository) OrderStats(ctx context.Context) (order.Stats, error) {
	q := storage.FromContext(ctx, r.db)
	st := order.Stats{TotalRevenue: decimal.Zero, StatusCounts: make(map[order.Status]int64)}

	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(CASE WHEN date(created_at) = date('now') THEN 1 END)
		FROM orders`).Scan(&st.TotalOrders, &st.TodayOrders)
	if err != nil {
		return st, fmt.Errorf("orders: stats: %w", err)
	}

	rows, err := q.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return st, fmt.Errorf("orders: status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s string
		var n int64
		if err := rows.Scan(&s, &n); err != nil {
			return st, err
		}
		st.StatusCounts[order.Status(s)] = n
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	// Revenue is summed in Go: decimal strings cannot be added exactly in SQL.
	totals, err := q.QueryContext(ctx, `SELECT total FROM orders WHERE status != 'cancelled'`)
	if err != nil {
		return st, fmt.Errorf("orders: revenue: %w", err)
	}
	defer totals.Close()
	for totals.Next() {
		var t string
		if err := totals.Scan(&t); err != nil {
			return st, err
		}
		d, err := decimal.NewFromString(t)
		if err != nil {
			return st, fmt.Errorf("orders: parse total %q: %w", t, err)
		}
		st.TotalRevenue = st.TotalRevenue.Add(d)
	}
	return st, totals.Err()
}

func (r *Repository) CreateDirectOrder(ctx context.Context, o *order.DirectOrder) error {
	if o.UUID == "" {
		o.UUID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}

	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return fmt.Errorf("orders: marshal customer info: %w", err)
	}

	q := storage.FromContext(ctx, r.db)
	const insOrder = `
		INSERT INTO direct_orders
			(uuid, order_number, status, customer_info, brand_id, brand_name, carrier,
			 tracking_number, notes, order_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := q.ExecContext(ctx, insOrder,
		o.UUID, o.OrderNumber, string(o.Status), string(customer),
		nullableID(o.BrandID), o.BrandName, o.Carrier, o.TrackingNumber, o.Notes,
		o.OrderDate.UTC().Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("orders: create direct %s: %w", o.OrderNumber, err)
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	const insItem = `
		INSERT INTO direct_order_items
			(order_id, product_id, variant_id, product_name, product_sku, variant_name, variant_options, quantity, unit_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i := range o.Items {
		it := &o.Items[i]
		opts, err := json.Marshal(orEmpty(it.VariantOptions))
		if err != nil {
			return fmt.Errorf("orders: marshal variant options: %w", err)
		}
		var price any
		if it.UnitPrice.Valid {
			price = it.UnitPrice.Decimal.String()
		}
		res, err := q.ExecContext(ctx, insItem,
			o.ID, nullableID(it.ProductID), nullableID(it.VariantID),
			it.ProductName, it.ProductSKU, it.VariantName, string(opts), it.Quantity, price,
		)
		if err != nil {
			return fmt.Errorf("orders: create direct item for %s: %w", o.OrderNumber, err)
		}
		if it.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

const directCols = `id, uuid, order_number, status, customer_info, COALESCE(brand_id, 0), brand_name,
	carrier, tracking_number, notes, order_date, created_at, updated_at, shipped_at, delivered_at`

func (r *Repository) DirectOrderByID(ctx context.Context, id int64) (*order.DirectOrder, error) {
	row := storage.FromContext(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+directCols+` FROM direct_orders WHERE id = ?`, id)

	o, err := scanDirectOrder(row)
	if err == sql.ErrNoRows {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.directItemsOf(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) ListDirectOrders(ctx context.Context, f order.ListFilter) ([]order.DirectOrder, error) {
	page, size := pageBounds(f)
	q := `SELECT ` + directCols + ` FROM direct_orders`
	args := []any{}
	if f.Status != "" {
		q += ` WHERE status = ?`
		args = append(args, string(f.Status))
	}
	q += ` ORDER BY order_date DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, size, (page-1)*size)

	rows, err := storage.FromContext(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("orders: list direct: %w", err)
	}
	defer rows.Close()

	var out []order.DirectOrder
	for rows.Next() {
		o, err := scanDirectOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = r.directItemsOf(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) UpdateDirectOrderStatus(ctx context.Context, id int64, status order.Status) error {
	return r.updateStatus(ctx, "direct_orders", id, status)
}

func (r *Repository) DeleteDirectOrder(ctx context.Context, id int64) error {
	return r.deleteFrom(ctx, "direct_orders", id)
}

func (r *Repository) DirectOrderStats(ctx context.Context) (order.DirectStats, error) {
	q := storage.FromContext(ctx, r.db)
	st := order.DirectStats{StatusCounts: make(map[order.Status]int64)}

	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(CASE WHEN date(order_date) = date('now') THEN 1 END)
		FROM direct_orders`).Scan(&st.TotalOrders, &st.TodayOrders)
	if err != nil {
		return st, fmt.Errorf("orders: direct stats: %w", err)
	}

	rows, err := q.QueryContext(ctx, `SELECT status, COUNT(*) FROM direct_orders GROUP BY status`)
	if err != nil {
		return st, fmt.Errorf("orders: direct status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s string
		var n int64
		if err := rows.Scan(&s, &n); err != nil {
			return st, err
		}
		st.StatusCounts[order.Status(s)] = n
	}
	return st, rows.Err()
}

// updateStatus stamps shipped_at/delivered_at on the first transition into
// those states, mirroring the storefront's lifecycle bookkeeping.
func (r *Repository) updateStatus(ctx context.Context, table string, id int64, status order.Status) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	q := `UPDATE ` + table + ` SET
		status = ?,
		updated_at = ?,
		shipped_at = CASE WHEN ? = 'shipped' AND shipped_at IS NULL THEN ? ELSE shipped_at END,
		delivered_at = CASE WHEN ? = 'delivered' AND delivered_at IS NULL THEN ? ELSE delivered_at END
		WHERE id = ?`

	res, err := storage.FromContext(ctx, r.db).ExecContext(ctx, q,
		string(status), now, string(status), now, string(status), now, id)
	if err != nil {
		return fmt.Errorf("orders: update status in %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *Repository) deleteFrom(ctx context.Context, table string, id int64) error {
	res, err := storage.FromContext(ctx, r.db).ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("orders: delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *Repository) itemsOf(ctx context.Context, orderID int64) ([]order.Item, error) {
	const q = `
		SELECT id, product_id, COALESCE(variant_id, 0), product_name, product_sku, product_barcode,
		       variant_name, variant_options, product_image, unit_price, quantity, discount, total
		FROM order_items WHERE order_id = ? ORDER BY id`

	rows, err := storage.FromContext(ctx, r.db).QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("orders: items of %d: %w", orderID, err)
	}
	defer rows.Close()

	var out []order.Item
	for rows.Next() {
		var it order.Item
		var opts, unitPrice, discount, total string
		err := rows.Scan(&it.ID, &it.ProductID, &it.VariantID, &it.ProductName, &it.ProductSKU, &it.ProductBarcode,
			&it.VariantName, &opts, &it.ProductImage, &unitPrice, &it.Quantity, &discount, &total)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(opts), &it.VariantOptions); err != nil {
			return nil, fmt.Errorf("orders: parse options: %w", err)
		}
		if it.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, err
		}
		if it.Discount, err = decimal.NewFromString(discount); err != nil {
			return nil, err
		}
		if it.Total, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repository) directItemsOf(ctx context.Context, orderID int64) ([]order.DirectItem, error) {
	const q = `
		SELECT id, COALESCE(product_id, 0), COALESCE(variant_id, 0), product_name, product_sku,
		       variant_name, variant_options, quantity, unit_price
		FROM direct_order_items WHERE order_id = ? ORDER BY id`

	rows, err := storage.FromContext(ctx, r.db).QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("orders: direct items of %d: %w", orderID, err)
	}
	defer rows.Close()

	var out []order.DirectItem
	for rows.Next() {
		var it order.DirectItem
		var opts string
		var price sql.NullString
		err := rows.Scan(&it.ID, &it.ProductID, &it.VariantID, &it.ProductName, &it.ProductSKU,
			&it.VariantName, &opts, &it.Quantity, &price)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(opts), &it.VariantOptions); err != nil {
			return nil, fmt.Errorf("orders: parse options: %w", err)
		}
		if price.Valid {
			d, err := decimal.NewFromString(price.String)
			if err != nil {
				return nil, err
			}
			it.UnitPrice = decimal.NewNullDecimal(d)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (*order.Order, error) {
	var o order.Order
	var subtotal, discount, shipping, tax, total string
	var shippingInfo, paymentInfo, createdAt, updatedAt string
	var shippedAt, deliveredAt sql.NullString

	err := s.Scan(&o.ID, &o.UUID, &o.OrderNumber, &o.Status,
		&subtotal, &discount, &shipping, &tax, &total,
		&shippingInfo, &paymentInfo, &o.CustomerNotes,
		&createdAt, &updatedAt, &shippedAt, &deliveredAt)
	if err != nil {
		return nil, err
	}

	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, err
	}
	if o.DiscountAmount, err = decimal.NewFromString(discount); err != nil {
		return nil, err
	}
	if o.ShippingCost, err = decimal.NewFromString(shipping); err != nil {
		return nil, err
	}
	if o.TaxAmount, err = decimal.NewFromString(tax); err != nil {
		return nil, err
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(shippingInfo), &o.Shipping); err != nil {
		return nil, fmt.Errorf("orders: parse shipping info: %w", err)
	}
	if err := json.Unmarshal([]byte(paymentInfo), &o.Payment); err != nil {
		return nil, fmt.Errorf("orders: parse payment info: %w", err)
	}
	if o.CreatedAt, err = parseRFC3339(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseRFC3339(updatedAt); err != nil {
		return nil, err
	}
	if o.ShippedAt, err = parseOptionalTime(shippedAt); err != nil {
		return nil, err
	}
	if o.DeliveredAt, err = parseOptionalTime(deliveredAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanDirectOrder(s rowScanner) (*order.DirectOrder, error) {
	var o order.DirectOrder
	var customerInfo, orderDate, createdAt, updatedAt string
	var shippedAt, deliveredAt sql.NullString

	err := s.Scan(&o.ID, &o.UUID, &o.OrderNumber, &o.Status,
		&customerInfo, &o.BrandID, &o.BrandName,
		&o.Carrier, &o.TrackingNumber, &o.Notes,
		&orderDate, &createdAt, &updatedAt, &shippedAt, &deliveredAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(customerInfo), &o.Customer); err != nil {
		return nil, fmt.Errorf("orders: parse customer info: %w", err)
	}
	if o.OrderDate, err = parseRFC3339(orderDate); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = parseRFC3339(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseRFC3339(updatedAt); err != nil {
		return nil, err
	}
	if o.ShippedAt, err = parseOptionalTime(shippedAt); err != nil {
		return nil, err
	}
	if o.DeliveredAt, err = parseOptionalTime(deliveredAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func pageBounds(f order.ListFilter) (page, size int) {
	page, size = f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("orders: parse time %q: %w", s, err)
	}
	return t, nil
}

func parseOptionalTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseRFC3339(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// orEmpty keeps "{}" in the column instead of JSON null for nil maps.
func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
