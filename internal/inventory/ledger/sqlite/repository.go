// Package sqlite provides a SQLite-backed implementation of
// ledger.Repository. The table is append-only: each row is an immutable
// stock movement, and the history query reads them newest first.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ridekraft/storefront/internal/inventory/ledger"
	"github.com/ridekraft/storefront/internal/storage"
)

// schema is the DDL executed once on startup.
const schema = `
CREATE TABLE IF NOT EXISTS stock_ledger (
    -- Surrogate primary key — auto-incremented by SQLite.
    id              INTEGER PRIMARY KEY AUTOINCREMENT,

    uuid            TEXT    NOT NULL UNIQUE,

    -- Exactly one of product_id / variant_id is set (XOR, enforced in code).
    product_id      INTEGER,
    variant_id      INTEGER,

    -- What caused the movement: initial, adjustment, scan_in, scan_out, order_out.
    action          TEXT    NOT NULL,

    -- Signed change plus the quantity snapshot around it.
    -- quantity_after == quantity_before + quantity_delta always holds.
    quantity_delta  INTEGER NOT NULL,
    quantity_before INTEGER NOT NULL,
    quantity_after  INTEGER NOT NULL,

    -- Operator-supplied free text ("recount", "damaged in transit").
    reason          TEXT    NOT NULL DEFAULT '',

    -- Business document this movement belongs to, e.g. the order number
    -- for order_out rows.
    reference       TEXT    NOT NULL DEFAULT '',

    -- W3C trace_id / span_id from the active OTel span, so a ledger row can
    -- be joined to the full distributed trace in Grafana/Tempo.
    trace_id        TEXT    NOT NULL DEFAULT '',
    span_id         TEXT    NOT NULL DEFAULT '',

    -- Wall-clock timestamp (RFC3339 stored as TEXT, SQLite idiom).
    created_at      TEXT    NOT NULL
);

-- Index for the history query: "latest movements for product X / variant Y".
CREATE INDEX IF NOT EXISTS idx_stock_ledger_product ON stock_ledger(product_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_stock_ledger_variant ON stock_ledger(variant_id, created_at DESC);

-- Index for the observability query: "find the movement for trace Z".
CREATE INDEX IF NOT EXISTS idx_stock_ledger_trace ON stock_ledger(trace_id);
`

// Repository is the SQLite implementation of ledger.Repository.
type Repository struct {
	db *sql.DB
}

var _ ledger.Repository = (*Repository)(nil)

// New applies the ledger schema and returns the repository.
// Idempotent due to IF NOT EXISTS.
func New(db *sql.DB) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Append inserts a new ledger entry. It is safe to call concurrently and
// participates in an enclosing storage.TxManager transaction when present.
func (r *Repository) Append(ctx context.Context, entry *ledger.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	const q = `
		INSERT INTO stock_ledger
			(uuid, product_id, variant_id, action, quantity_delta, quantity_before, quantity_after,
			 reason, reference, trace_id, span_id, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := storage.FromContext(ctx, r.db).ExecContext(ctx, q,
		entry.UUID,
		nullableID(entry.Entity.ProductID),
		nullableID(entry.Entity.VariantID),
		string(entry.Action),
		entry.Delta,
		entry.Before,
		entry.After,
		entry.Reason,
		entry.Reference,
		entry.TraceID,
		entry.SpanID,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("ledger: append entry for %s: %w", entry.Entity, err)
	}
	entry.ID, err = res.LastInsertId()
	return err
}

// ListByEntity returns up to limit entries for one entity, newest first.
func (r *Repository) ListByEntity(ctx context.Context, ref ledger.EntityRef, limit int) ([]ledger.Entry, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	q := `
		SELECT id, uuid, COALESCE(product_id, 0), COALESCE(variant_id, 0), action,
		       quantity_delta, quantity_before, quantity_after,
		       reason, reference, trace_id, span_id, created_at
		FROM   stock_ledger
		WHERE  `
	var arg int64
	if ref.IsVariant() {
		q += `variant_id = ?`
		arg = ref.VariantID
	} else {
		q += `product_id = ?`
		arg = ref.ProductID
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := storage.FromContext(ctx, r.db).QueryContext(ctx, q, arg, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list for %s: %w", ref, err)
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var createdAt string
		err := rows.Scan(&e.ID, &e.UUID, &e.Entity.ProductID, &e.Entity.VariantID, &e.Action,
			&e.Delta, &e.Before, &e.After,
			&e.Reason, &e.Reference, &e.TraceID, &e.SpanID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("ledger: scan entry: %w", err)
		}
		if e.CreatedAt, err = parseRFC3339(createdAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ledger: parse time %q: %w", s, err)
	}
	return t, nil
}

// nullableID stores NULL instead of 0 so the XOR shape is visible in SQL.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
