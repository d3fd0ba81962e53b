// Package storage owns the SQLite connection and the transaction boundary
// shared by every repository in this service.
//
// We use modernc.org/sqlite instead of mattn/go-sqlite3 to avoid CGO
// requirements, making it easier to build and run in Docker (Alpine).
package storage

import (
	"context"
	"database/sql"
	"fmt"

	// Register the pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

// Open opens (or creates) the SQLite database at the given path.
// WAL mode is enabled so that readers never block writers and vice versa —
// important because admin screens read stock history while order submission
// is writing ledger rows.
//
//	db, err := storage.Open("./data/storefront.db")
func Open(path string) (*sql.DB, error) {
	// The pure-Go driver uses _pragma query parameters to configure connection state.
	// WAL enables concurrent readers. foreign_keys=on enforces integrity.
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3" for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	return db, nil
}

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repository methods run against whichever the context carries.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager is the port for running several repository calls atomically.
// Order submission uses it to deduct stock, append ledger entries and insert
// the order as one unit.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// FromContext returns the transaction stored in ctx, or db when the call is
// not running inside WithTransaction.
func FromContext(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// SQLTxManager implements TxManager on a *sql.DB by stashing the open
// transaction in the context for FromContext to pick up.
type SQLTxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) *SQLTxManager {
	return &SQLTxManager{db: db}
}

var _ TxManager = (*SQLTxManager)(nil)

func (m *SQLTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit tx: %w", err)
	}
	return nil
}
