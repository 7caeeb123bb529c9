package numbering

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ErrUnknownKind indicates an unsupported sequence kind.
var ErrUnknownKind = fmt.Errorf("%w: unknown sequence kind", shared.ErrValidation)

// Store allocates and administers document sequences over a Querier. Bind it
// to a pgx.Tx to join a caller-owned transaction.
type Store struct {
	q db.Querier
}

// NewStore constructs a Store on the given querier.
func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

// Allocate draws the next number for the org and kind. The sequence row is
// seeded lazily on first use; the increment is a single conditional UPDATE so
// concurrent allocators for the same org/kind serialize on the row lock.
func (s *Store) Allocate(ctx context.Context, orgID int64, kind Kind) (DocumentNumber, error) {
	if !kind.Valid() {
		return DocumentNumber{}, ErrUnknownKind
	}

	var exists bool
	if err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM company_profiles WHERE org_id = $1)`, orgID).Scan(&exists); err != nil {
		return DocumentNumber{}, fmt.Errorf("numbering: check profile: %w", err)
	}
	if !exists {
		return DocumentNumber{}, shared.ErrProfileNotConfigured
	}

	if _, err := s.q.Exec(ctx, `INSERT INTO doc_sequences (org_id, kind, prefix, next_number)
VALUES ($1, $2, $3, 1)
ON CONFLICT (org_id, kind) DO NOTHING`, orgID, string(kind), kind.DefaultPrefix()); err != nil {
		return DocumentNumber{}, fmt.Errorf("numbering: seed sequence: %w", err)
	}

	var allocated DocumentNumber
	err := s.q.QueryRow(ctx, `UPDATE doc_sequences
SET next_number = next_number + 1
WHERE org_id = $1 AND kind = $2
RETURNING prefix, next_number - 1`, orgID, string(kind)).Scan(&allocated.Prefix, &allocated.Number)
	if err != nil {
		return DocumentNumber{}, fmt.Errorf("numbering: advance sequence: %w", err)
	}
	if allocated.Number < 1 {
		return DocumentNumber{}, fmt.Errorf("%w: counter for %s is %d", shared.ErrInvalidSequenceState, kind, allocated.Number)
	}
	return allocated, nil
}

// Get returns the current sequence state, or shared.ErrNotFound when the
// sequence has never been used or provisioned.
func (s *Store) Get(ctx context.Context, orgID int64, kind Kind) (Sequence, error) {
	if !kind.Valid() {
		return Sequence{}, ErrUnknownKind
	}
	seq := Sequence{OrgID: orgID, Kind: kind}
	err := s.q.QueryRow(ctx, `SELECT prefix, next_number FROM doc_sequences WHERE org_id = $1 AND kind = $2`,
		orgID, string(kind)).Scan(&seq.Prefix, &seq.NextNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sequence{}, fmt.Errorf("sequence %s: %w", kind, shared.ErrNotFound)
		}
		return Sequence{}, fmt.Errorf("numbering: get sequence: %w", err)
	}
	return seq, nil
}

// Set writes the sequence state for administrative overrides. A next number
// below the current value is rejected: a reissued number could collide with a
// document already printed and handed out.
func (s *Store) Set(ctx context.Context, orgID int64, kind Kind, prefix string, nextNumber int64) error {
	if !kind.Valid() {
		return ErrUnknownKind
	}
	if nextNumber < 1 {
		return fmt.Errorf("%w: next number must be >= 1", shared.ErrInvalidSequenceState)
	}
	if prefix == "" {
		prefix = kind.DefaultPrefix()
	}

	tag, err := s.q.Exec(ctx, `INSERT INTO doc_sequences (org_id, kind, prefix, next_number)
VALUES ($1, $2, $3, $4)
ON CONFLICT (org_id, kind) DO UPDATE SET prefix = EXCLUDED.prefix, next_number = EXCLUDED.next_number
WHERE doc_sequences.next_number <= EXCLUDED.next_number`, orgID, string(kind), prefix, nextNumber)
	if err != nil {
		return fmt.Errorf("numbering: set sequence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s sequence", shared.ErrSequenceRegression, kind)
	}
	return nil
}
