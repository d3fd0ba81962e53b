// Package inventory implements the stock service: absolute sets, relative
// adjustments, current-quantity reads and ledger history. Every successful
// mutation appends exactly one ledger entry; rejected or no-op changes
// append nothing.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ridekraft/storefront/internal/inventory/ledger"
	"github.com/ridekraft/storefront/internal/pkg/cache"
	"github.com/ridekraft/storefront/internal/storage"
)

var (
	// ErrInvalidQuantity rejects negative absolute quantities.
	ErrInvalidQuantity = errors.New("inventory: invalid quantity")
	// ErrInsufficientStock rejects adjustments that would drive stock negative.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// Service owns stock quantities and their audit trail.
type Service struct {
	stock  StockStore
	ledger ledger.Repository
	tx     storage.TxManager
	cache  cache.Cache // nil-safe: invalidation skipped if nil
}

// NewService wires the stock store and ledger repository together.
// c may be nil — in that case cache invalidation is skipped.
func NewService(stock StockStore, lg ledger.Repository, tx storage.TxManager, c cache.Cache) *Service {
	return &Service{stock: stock, ledger: lg, tx: tx, cache: c}
}

// CurrentQuantity returns the quantity on hand for a product or variant.
// Entities that were never stocked report zero.
func (s *Service) CurrentQuantity(ctx context.Context, ref ledger.EntityRef) (int64, error) {
	qty, _, err := s.stock.Quantity(ctx, ref)
	return qty, err
}

// SetQuantity records an absolute quantity ("recount to 12"). The delta is
// computed internally. Setting the current value is a no-op and returns a
// nil entry. The first set for an entity is logged as an initial movement.
func (s *Service) SetQuantity(ctx context.Context, ref ledger.EntityRef, newQty int64, reason string) (*ledger.Entry, error) {
	if newQty < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, newQty)
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	var entry *ledger.Entry
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		before, exists, err := s.stock.Quantity(ctx, ref)
		if err != nil {
			return err
		}
		if exists && before == newQty {
			return nil // no movement, no ledger entry
		}

		action := ledger.ActionAdjustment
		if !exists {
			action = ledger.ActionInitial
		}

		if err := s.stock.SetQuantity(ctx, ref, newQty); err != nil {
			return err
		}
		entry = ledger.NewEntry(ctx, ref, action, newQty-before, before, reason, "")
		return s.ledger.Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		s.invalidate(ctx, ref)
		slog.InfoContext(ctx, "stock set", "entity", ref.String(), "before", entry.Before, "after", entry.After, "reason", reason)
	}
	return entry, nil
}

// AdjustQuantity records a relative change ("+5 received", "-2 damaged").
// A zero delta is a no-op and returns a nil entry.
func (s *Service) AdjustQuantity(ctx context.Context, ref ledger.EntityRef, delta int64, reason string) (*ledger.Entry, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, nil
	}

	var entry *ledger.Entry
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		before, _, err := s.stock.Quantity(ctx, ref)
		if err != nil {
			return err
		}
		if before+delta < 0 {
			return fmt.Errorf("%w: cannot remove %d, only %d on hand", ErrInsufficientStock, -delta, before)
		}

		if err := s.stock.SetQuantity(ctx, ref, before+delta); err != nil {
			return err
		}
		entry = ledger.NewEntry(ctx, ref, ledger.ActionAdjustment, delta, before, reason, "")
		return s.ledger.Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ref)
	slog.InfoContext(ctx, "stock adjusted", "entity", ref.String(), "delta", delta, "after", entry.After, "reason", reason)
	return entry, nil
}

// History returns the latest ledger entries for an entity, newest first.
func (s *Service) History(ctx context.Context, ref ledger.EntityRef, limit int) ([]ledger.Entry, error) {
	return s.ledger.ListByEntity(ctx, ref, limit)
}

// Stats aggregates stock levels for the dashboard.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.stock.Stats(ctx)
}

// invalidate drops cached views that embed this entity's quantity.
func (s *Service) invalidate(ctx context.Context, ref ledger.EntityRef) {
	if s.cache == nil {
		return
	}
	keys := []string{
		s.cache.GenerateKey("stats", "inventory"),
		s.cache.GenerateKey("quantity", ref.String()),
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", "entity", ref.String(), "error", err)
	}
}
