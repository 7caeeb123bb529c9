package numbering

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// execRecorder satisfies db.Querier for paths that only Exec. The command
// tag it returns stands in for the conditional upsert's row count.
type execRecorder struct {
	tag      pgconn.CommandTag
	err      error
	calls    int
	lastArgs []any
}

func (f *execRecorder) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls++
	f.lastArgs = args
	return f.tag, f.err
}

func (f *execRecorder) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func (f *execRecorder) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("unexpected QueryRow")
}

func TestSetForwardMoveSucceeds(t *testing.T) {
	q := &execRecorder{tag: pgconn.NewCommandTag("UPDATE 1")}
	store := NewStore(q)

	err := store.Set(context.Background(), 1, KindInvoice, "INV-", 42)
	require.NoError(t, err)
	require.Equal(t, 1, q.calls)
}

func TestSetBackwardMoveRejected(t *testing.T) {
	// A next number below the stored counter leaves the conditional upsert
	// matching zero rows.
	q := &execRecorder{tag: pgconn.NewCommandTag("UPDATE 0")}
	store := NewStore(q)

	err := store.Set(context.Background(), 1, KindInvoice, "INV-", 3)
	require.ErrorIs(t, err, shared.ErrSequenceRegression)
}

func TestSetRejectsCounterBelowOne(t *testing.T) {
	q := &execRecorder{}
	store := NewStore(q)

	err := store.Set(context.Background(), 1, KindCashBill, "CB-", 0)
	require.ErrorIs(t, err, shared.ErrInvalidSequenceState)
	require.Zero(t, q.calls)
}

func TestSetDefaultsEmptyPrefix(t *testing.T) {
	q := &execRecorder{tag: pgconn.NewCommandTag("INSERT 0 1")}
	store := NewStore(q)

	require.NoError(t, store.Set(context.Background(), 1, KindCashBill, "", 1))
	require.Len(t, q.lastArgs, 4)
	require.Equal(t, "CB-", q.lastArgs[2])
}

func TestSetUnknownKind(t *testing.T) {
	store := NewStore(&execRecorder{})
	err := store.Set(context.Background(), 1, Kind("quote"), "", 1)
	require.ErrorIs(t, err, ErrUnknownKind)
}
