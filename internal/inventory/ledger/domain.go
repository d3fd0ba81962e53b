// Package ledger defines the domain types for the stock ledger.
//
// The ledger is a durable audit trail of every quantity change a product or
// variant goes through. It serves two purposes:
//
//  1. Observability: admins can query exactly when and why stock moved, and
//     correlate a movement with a distributed trace via the trace_id field.
//
//  2. Reconciliation: replaying the entries for an entity from zero by
//     summing deltas reproduces the current quantity, so drift between the
//     ledger and the stock table is detectable.
//
// Entries are append-only: they are never edited or deleted, and exactly one
// entry is written per successful quantity change. Rejected or no-op changes
// produce no entry.
package ledger

import (
	"errors"
	"fmt"
	"time"
)

// Action classifies what caused a quantity change.
type Action string

const (
	// ActionInitial records the opening quantity when stock tracking starts.
	ActionInitial Action = "initial"
	// ActionAdjustment is a manual absolute set or relative correction.
	ActionAdjustment Action = "adjustment"
	// ActionScanIn / ActionScanOut are barcode-scanner driven movements.
	ActionScanIn  Action = "scan_in"
	ActionScanOut Action = "scan_out"
	// ActionOrderOut is a deduction caused by order submission. The entry's
	// Reference carries the order number.
	ActionOrderOut Action = "order_out"
)

// ErrInvalidEntity rejects references that name neither or both of a
// product and a variant.
var ErrInvalidEntity = errors.New("ledger: entity ref must set exactly one of product or variant id")

// EntityRef identifies the owner of a ledger: a product XOR a variant.
// A product with variants keeps no product-level ledger; each variant has
// its own.
type EntityRef struct {
	ProductID int64
	VariantID int64
}

// ProductRef and VariantRef build well-formed references.
func ProductRef(id int64) EntityRef { return EntityRef{ProductID: id} }
func VariantRef(id int64) EntityRef { return EntityRef{VariantID: id} }

// IsVariant reports whether the reference points at a variant ledger.
func (r EntityRef) IsVariant() bool { return r.VariantID != 0 }

// Validate enforces the XOR rule.
func (r EntityRef) Validate() error {
	if (r.ProductID == 0) == (r.VariantID == 0) {
		return ErrInvalidEntity
	}
	return nil
}

// String renders a stable key, used for cache invalidation and log fields.
func (r EntityRef) String() string {
	if r.IsVariant() {
		return fmt.Sprintf("variant:%d", r.VariantID)
	}
	return fmt.Sprintf("product:%d", r.ProductID)
}

// Entry is a single immutable row in the stock ledger.
type Entry struct {
	ID   int64
	UUID string

	// Entity is the product or variant this movement belongs to.
	Entity EntityRef

	// Action is what caused the movement.
	Action Action

	// Delta is the signed quantity change. Before and After snapshot the
	// quantity around it; After == Before + Delta always holds.
	Delta  int64
	Before int64
	After  int64

	// Reason is free text supplied by the operator ("recount", "damaged").
	Reason string

	// Reference ties the entry to a business document, typically an order
	// number for order_out movements.
	Reference string

	// TraceID is the W3C trace ID extracted from the OpenTelemetry span that
	// was active when this entry was written. Allows jumping from a ledger
	// row directly to the full trace in Grafana/Tempo.
	TraceID string

	// SpanID pinpoints the exact operation within the trace.
	SpanID string

	// CreatedAt is the wall-clock time of the movement.
	CreatedAt time.Time
}

// Validate checks the arithmetic invariant before an append.
func (e *Entry) Validate() error {
	if err := e.Entity.Validate(); err != nil {
		return err
	}
	if e.After != e.Before+e.Delta {
		return fmt.Errorf("ledger: broken invariant: after %d != before %d + delta %d", e.After, e.Before, e.Delta)
	}
	return nil
}
