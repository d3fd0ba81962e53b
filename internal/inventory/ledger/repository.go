package ledger

import "context"

// Repository is the port (interface) for persisting ledger entries.
// The inventory service depends on this abstraction, not on SQLite directly,
// so you can swap the implementation for Postgres, in-memory (tests), etc.
type Repository interface {
	// Append persists a new entry. Each call appends a row; the table is an
	// append-only audit log, not an upsert.
	Append(ctx context.Context, entry *Entry) error

	// ListByEntity returns up to limit entries for one product or variant,
	// newest first. The result is a finite paged snapshot, not a live stream.
	ListByEntity(ctx context.Context, ref EntityRef, limit int) ([]Entry, error)
}
