// Package stock applies signed quantity deltas to product stock counters.
// Every delta is a single atomic increment scoped to the owning organisation;
// the ledger never reads then writes back a stock value.
package stock

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Delta is one signed stock adjustment. Positive increases stock (purchase,
// sale reversal); negative decreases it (sale, purchase reversal).
type Delta struct {
	ProductID int64
	Quantity  int64
}

// Invert flips the sign of every delta, producing the exact reversal.
func Invert(deltas []Delta) []Delta {
	out := make([]Delta, len(deltas))
	for i, d := range deltas {
		out[i] = Delta{ProductID: d.ProductID, Quantity: -d.Quantity}
	}
	return out
}

// Policy controls whether the ledger blocks movements that would take a
// product's stock below zero. The default allows oversell, matching the
// historical behaviour; orgs that want a hard floor opt in via configuration.
type Policy struct {
	EnforceFloor bool
}

// ErrInsufficientStock is returned when the floor policy blocks a decrement.
var ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", shared.ErrValidation)

// Ledger mutates product stock counters over a Querier. Bind it to a pgx.Tx
// so deltas commit or roll back with the caller's primary write.
type Ledger struct {
	q      db.Querier
	policy Policy
}

// NewLedger constructs a Ledger on the given querier.
func NewLedger(q db.Querier, policy Policy) *Ledger {
	return &Ledger{q: q, policy: policy}
}

// ApplyDeltas applies every delta as an atomic per-row increment. Entries may
// repeat a product; each is applied independently. A product id that does not
// belong to the org matches no row and is silently skipped, mirroring
// conditional-update semantics. Callers verify ownership beforehand when a
// mismatch must be an error.
func (l *Ledger) ApplyDeltas(ctx context.Context, orgID int64, deltas []Delta) error {
	for _, d := range deltas {
		if err := l.applyOne(ctx, orgID, d); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) applyOne(ctx context.Context, orgID int64, d Delta) error {
	if l.policy.EnforceFloor && d.Quantity < 0 {
		tag, err := l.q.Exec(ctx, `UPDATE products
SET stock = stock + $1, updated_at = NOW()
WHERE id = $2 AND org_id = $3 AND stock + $1 >= 0`, d.Quantity, d.ProductID, orgID)
		if err != nil {
			return fmt.Errorf("stock: apply delta: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Distinguish a blocked decrement from an org mismatch no-op.
			var exists bool
			if err := l.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND org_id = $2)`, d.ProductID, orgID).Scan(&exists); err != nil {
				return fmt.Errorf("stock: check product: %w", err)
			}
			if exists {
				return fmt.Errorf("%w: product %d", ErrInsufficientStock, d.ProductID)
			}
		}
		return nil
	}

	if _, err := l.q.Exec(ctx, `UPDATE products
SET stock = stock + $1, updated_at = NOW()
WHERE id = $2 AND org_id = $3`, d.Quantity, d.ProductID, orgID); err != nil {
		return fmt.Errorf("stock: apply delta: %w", err)
	}
	return nil
}
