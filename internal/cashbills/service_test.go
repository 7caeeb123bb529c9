package cashbills

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryBillRepo struct {
	bills      map[int64]CashBill
	balances   map[int64]SaleBalance
	statuses   map[int64]sales.PaymentStatus
	nextBillID int64
	nextNumber int64
}

func newMemoryBillRepo() *memoryBillRepo {
	return &memoryBillRepo{
		bills:      make(map[int64]CashBill),
		balances:   make(map[int64]SaleBalance),
		statuses:   make(map[int64]sales.PaymentStatus),
		nextNumber: 1,
	}
}

func (r *memoryBillRepo) snapshot() *memoryBillRepo {
	cp := newMemoryBillRepo()
	cp.nextBillID = r.nextBillID
	cp.nextNumber = r.nextNumber
	for k, v := range r.bills {
		v.Payments = append([]Payment(nil), v.Payments...)
		cp.bills[k] = v
	}
	for k, v := range r.balances {
		cp.balances[k] = v
	}
	for k, v := range r.statuses {
		cp.statuses[k] = v
	}
	return cp
}

func (r *memoryBillRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	before := r.snapshot()
	if err := fn(ctx, (*memoryBillTx)(r)); err != nil {
		r.bills = before.bills
		r.balances = before.balances
		r.statuses = before.statuses
		r.nextBillID = before.nextBillID
		r.nextNumber = before.nextNumber
		return err
	}
	return nil
}

func (r *memoryBillRepo) Get(ctx context.Context, orgID, id int64) (CashBill, error) {
	b, ok := r.bills[id]
	if !ok || b.OrgID != orgID {
		return CashBill{}, ErrBillNotFound
	}
	return b, nil
}

func (r *memoryBillRepo) List(ctx context.Context, orgID int64, filter ListFilter) ([]CashBill, error) {
	out := []CashBill{}
	for _, b := range r.bills {
		if b.OrgID != orgID {
			continue
		}
		if filter.SaleID != 0 && b.SaleID != filter.SaleID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type memoryBillTx memoryBillRepo

func (t *memoryBillTx) LockSaleBalance(ctx context.Context, orgID, saleID int64) (SaleBalance, error) {
	bal, ok := t.balances[saleID]
	if !ok {
		return SaleBalance{}, sales.ErrSaleNotFound
	}
	return bal, nil
}

func (t *memoryBillTx) AllocateNumber(ctx context.Context, orgID int64, kind numbering.Kind) (numbering.DocumentNumber, error) {
	n := t.nextNumber
	t.nextNumber++
	return numbering.DocumentNumber{Prefix: kind.DefaultPrefix(), Number: n}, nil
}

func (t *memoryBillTx) InsertBill(ctx context.Context, bill CashBill) (int64, error) {
	t.nextBillID++
	bill.ID = t.nextBillID
	t.bills[bill.ID] = bill
	return bill.ID, nil
}

func (t *memoryBillTx) UpdateSalePayments(ctx context.Context, orgID, saleID int64, paymentsTotal float64, status sales.PaymentStatus) error {
	bal, ok := t.balances[saleID]
	if !ok {
		return sales.ErrSaleNotFound
	}
	bal.PaymentsTotal = paymentsTotal
	t.balances[saleID] = bal
	t.statuses[saleID] = status
	return nil
}

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, log shared.AuditLog) error { return nil }

var testIdentity = shared.Identity{OrgID: 1, UserID: 7}

func newTestService() (*Service, *memoryBillRepo) {
	repo := newMemoryBillRepo()
	repo.balances[1] = SaleBalance{SaleID: 1, CustomerName: "Asha Stores", Total: 100, PaymentsTotal: 0}
	return NewService(repo, noopAudit{}, nil), repo
}

func TestRecordPaymentMovesSaleForward(t *testing.T) {
	svc, repo := newTestService()

	bill, err := svc.RecordPayment(context.Background(), testIdentity, RecordPaymentRequest{
		SaleID:   1,
		Payments: []PaymentInput{{Mode: ModeUPI, Amount: 40}},
	})
	require.NoError(t, err)
	require.Equal(t, "CB-0001", bill.BillNo)
	require.Equal(t, "Asha Stores", bill.CustomerName)
	require.Equal(t, 40.0, bill.TotalPaid)
	require.Equal(t, 40.0, repo.balances[1].PaymentsTotal)
	require.Equal(t, sales.PaymentStatusPartial, repo.statuses[1])

	second, err := svc.RecordPayment(context.Background(), testIdentity, RecordPaymentRequest{
		SaleID:   1,
		Payments: []PaymentInput{{Amount: 60}},
	})
	require.NoError(t, err)
	require.Equal(t, "CB-0002", second.BillNo)
	require.Equal(t, ModeCash, second.Payments[0].Mode)
	require.Equal(t, 100.0, repo.balances[1].PaymentsTotal)
	require.Equal(t, sales.PaymentStatusPaid, repo.statuses[1])
}

func TestRecordPaymentSplitsAcrossModes(t *testing.T) {
	svc, repo := newTestService()

	bill, err := svc.RecordPayment(context.Background(), testIdentity, RecordPaymentRequest{
		SaleID: 1,
		Payments: []PaymentInput{
			{Mode: ModeCash, Amount: 30},
			{Mode: ModeCard, Amount: 50, RefNo: "AUTH-7731"},
			{Mode: ModeWallet, Amount: 20},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 100.0, bill.TotalPaid)
	require.Len(t, bill.Payments, 3)
	require.Equal(t, "AUTH-7731", bill.Payments[1].RefNo)
	require.Equal(t, sales.PaymentStatusPaid, repo.statuses[1])
}

func TestRecordPaymentRejectsOverpayingSplit(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.RecordPayment(context.Background(), testIdentity, RecordPaymentRequest{
		SaleID: 1,
		Payments: []PaymentInput{
			{Mode: ModeCash, Amount: 60},
			{Mode: ModeCard, Amount: 40.01},
		},
	})
	require.ErrorIs(t, err, shared.ErrOverpayment)
	require.Equal(t, 0.0, repo.balances[1].PaymentsTotal)
	require.Equal(t, int64(1), repo.nextNumber)
	require.Empty(t, repo.bills)
}

func TestRecordPaymentToleratesRoundingAtBoundary(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.RecordPayment(context.Background(), testIdentity, RecordPaymentRequest{
		SaleID:   1,
		Payments: []PaymentInput{{Amount: 100.00005}},
	})
	require.NoError(t, err)
	require.Equal(t, sales.PaymentStatusPaid, repo.statuses[1])
}

func TestRecordPaymentUnknownSaleDrawsNoNumber(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.RecordPayment(context.Background(), testIdentity, RecordPaymentRequest{
		SaleID:   404,
		Payments: []PaymentInput{{Amount: 10}},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, int64(1), repo.nextNumber)
}

func TestRecordPaymentValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, testIdentity, RecordPaymentRequest{
		Payments: []PaymentInput{{Amount: 10}},
	})
	require.ErrorIs(t, err, ErrMissingSale)

	_, err = svc.RecordPayment(ctx, testIdentity, RecordPaymentRequest{SaleID: 1})
	require.ErrorIs(t, err, ErrEmptyPayments)

	_, err = svc.RecordPayment(ctx, testIdentity, RecordPaymentRequest{
		SaleID:   1,
		Payments: []PaymentInput{{Amount: 0}},
	})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordPayment(ctx, testIdentity, RecordPaymentRequest{
		SaleID:   1,
		Payments: []PaymentInput{{Mode: ModeCash, Amount: 10}, {Mode: "cheque", Amount: 5}},
	})
	require.ErrorIs(t, err, ErrInvalidMode)
}

func TestPaymentModeValid(t *testing.T) {
	for _, m := range []PaymentMode{ModeCash, ModeCard, ModeUPI, ModeBank, ModeWallet, ModeCredit} {
		require.True(t, m.Valid())
	}
	require.False(t, PaymentMode("cheque").Valid())
	require.False(t, PaymentMode("").Valid())
}
