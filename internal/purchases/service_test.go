package purchases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/stock"
)

type memoryPurchaseRepo struct {
	purchases map[int64]Purchase
	stocks    map[int64]int64
	suppliers map[int64]bool
	nextID    int64
}

func newMemoryPurchaseRepo() *memoryPurchaseRepo {
	return &memoryPurchaseRepo{
		purchases: make(map[int64]Purchase),
		stocks:    make(map[int64]int64),
		suppliers: make(map[int64]bool),
	}
}

func (r *memoryPurchaseRepo) snapshot() *memoryPurchaseRepo {
	cp := newMemoryPurchaseRepo()
	cp.nextID = r.nextID
	for k, v := range r.purchases {
		v.Items = append([]PurchaseItem(nil), v.Items...)
		cp.purchases[k] = v
	}
	for k, v := range r.stocks {
		cp.stocks[k] = v
	}
	for k, v := range r.suppliers {
		cp.suppliers[k] = v
	}
	return cp
}

func (r *memoryPurchaseRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	before := r.snapshot()
	if err := fn(ctx, (*memoryPurchaseTx)(r)); err != nil {
		r.purchases = before.purchases
		r.stocks = before.stocks
		r.suppliers = before.suppliers
		r.nextID = before.nextID
		return err
	}
	return nil
}

func (r *memoryPurchaseRepo) Get(ctx context.Context, orgID, id int64) (Purchase, error) {
	p, ok := r.purchases[id]
	if !ok || p.OrgID != orgID {
		return Purchase{}, ErrPurchaseNotFound
	}
	return p, nil
}

func (r *memoryPurchaseRepo) List(ctx context.Context, orgID int64, filter ListFilter) ([]Purchase, error) {
	out := []Purchase{}
	for _, p := range r.purchases {
		if p.OrgID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memoryPurchaseTx memoryPurchaseRepo

func (t *memoryPurchaseTx) GetPurchase(ctx context.Context, orgID, id int64) (Purchase, error) {
	return (*memoryPurchaseRepo)(t).Get(ctx, orgID, id)
}

func (t *memoryPurchaseTx) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	t.nextID++
	p.ID = t.nextID
	t.purchases[p.ID] = p
	return p.ID, nil
}

func (t *memoryPurchaseTx) UpdatePurchase(ctx context.Context, p Purchase, replaceItems bool) error {
	stored, ok := t.purchases[p.ID]
	if !ok || stored.OrgID != p.OrgID {
		return ErrPurchaseNotFound
	}
	stored.Date = p.Date
	stored.BillNumber = p.BillNumber
	stored.SupplierID = p.SupplierID
	stored.SupplierName = p.SupplierName
	stored.SubTotal = p.SubTotal
	stored.TaxAmount = p.TaxAmount
	stored.Discount = p.Discount
	stored.Total = p.Total
	stored.Notes = p.Notes
	if replaceItems {
		stored.Items = append([]PurchaseItem(nil), p.Items...)
	}
	t.purchases[p.ID] = stored
	return nil
}

func (t *memoryPurchaseTx) DeletePurchase(ctx context.Context, orgID, id int64) error {
	p, ok := t.purchases[id]
	if !ok || p.OrgID != orgID {
		return ErrPurchaseNotFound
	}
	delete(t.purchases, id)
	return nil
}

func (t *memoryPurchaseTx) CountProducts(ctx context.Context, orgID int64, ids []int64) (int, error) {
	count := 0
	for _, id := range ids {
		if _, ok := t.stocks[id]; ok {
			count++
		}
	}
	return count, nil
}

func (t *memoryPurchaseTx) SupplierExists(ctx context.Context, orgID, supplierID int64) (bool, error) {
	return t.suppliers[supplierID], nil
}

func (t *memoryPurchaseTx) ApplyStockDeltas(ctx context.Context, orgID int64, deltas []stock.Delta) error {
	for _, d := range deltas {
		if _, ok := t.stocks[d.ProductID]; ok {
			t.stocks[d.ProductID] += d.Quantity
		}
	}
	return nil
}

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, log shared.AuditLog) error { return nil }

var testIdentity = shared.Identity{OrgID: 1, UserID: 7}

func newTestService() (*Service, *memoryPurchaseRepo) {
	repo := newMemoryPurchaseRepo()
	repo.stocks[10] = 20
	repo.stocks[20] = 0
	repo.suppliers[3] = true
	return NewService(repo, noopAudit{}), repo
}

func TestCreatePurchaseIncrementsStock(t *testing.T) {
	svc, repo := newTestService()

	purchase, err := svc.Create(context.Background(), testIdentity, CreatePurchaseRequest{
		SupplierID: ptr(int64(3)),
		BillNumber: "SB/2024/117",
		Items: []PurchaseItemRequest{
			{ProductID: 10, Quantity: 30, Price: 8},
			{ProductID: 20, Quantity: 12, Price: 4},
		},
		SubTotal:  288,
		TaxAmount: 14.4,
		Total:     302.4,
	})
	require.NoError(t, err)
	require.Equal(t, "SB/2024/117", purchase.BillNumber)
	require.Equal(t, int64(50), repo.stocks[10])
	require.Equal(t, int64(12), repo.stocks[20])
}

func TestCreatePurchaseUnknownSupplierRejected(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), testIdentity, CreatePurchaseRequest{
		SupplierID: ptr(int64(404)),
		Items:      []PurchaseItemRequest{{ProductID: 10, Quantity: 5, Price: 8}},
		Total:      40,
	})
	require.ErrorIs(t, err, ErrForeignSupplier)
	require.Equal(t, int64(20), repo.stocks[10])
	require.Empty(t, repo.purchases)
}

func TestCreatePurchaseUnknownProductRollsBack(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), testIdentity, CreatePurchaseRequest{
		SupplierID: ptr(int64(3)),
		Items: []PurchaseItemRequest{
			{ProductID: 10, Quantity: 5, Price: 8},
			{ProductID: 999, Quantity: 1, Price: 1},
		},
		Total: 41,
	})
	require.ErrorIs(t, err, shared.ErrForeignReference)
	require.Equal(t, int64(20), repo.stocks[10])
	require.Empty(t, repo.purchases)
}

func TestCreatePurchaseValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, testIdentity, CreatePurchaseRequest{
		Items: []PurchaseItemRequest{{ProductID: 10, Quantity: 1, Price: 8}},
	})
	require.ErrorIs(t, err, ErrNoSupplier)

	_, err = svc.Create(ctx, testIdentity, CreatePurchaseRequest{SupplierID: ptr(int64(3))})
	require.ErrorIs(t, err, ErrEmptyItems)

	_, err = svc.Create(ctx, testIdentity, CreatePurchaseRequest{
		SupplierID: ptr(int64(3)),
		Items:      []PurchaseItemRequest{{ProductID: 10, Quantity: 1, Price: 8}},
		Discount:   -5,
	})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCreatePurchaseRequiresSupplierID(t *testing.T) {
	svc, repo := newTestService()

	// A supplier name alone never stands in for the id.
	_, err := svc.Create(context.Background(), testIdentity, CreatePurchaseRequest{
		SupplierName: "Acme Traders",
		Items:        []PurchaseItemRequest{{ProductID: 10, Quantity: 5, Price: 8}},
		Total:        40,
	})
	require.ErrorIs(t, err, ErrNoSupplier)
	require.Equal(t, int64(20), repo.stocks[10])
	require.Empty(t, repo.purchases)
}

func TestUpdatePurchaseItemsOnlySkipsSupplierCheck(t *testing.T) {
	svc, repo := newTestService()

	purchase, err := svc.Create(context.Background(), testIdentity, CreatePurchaseRequest{
		SupplierID: ptr(int64(3)),
		Items:      []PurchaseItemRequest{{ProductID: 10, Quantity: 30, Price: 8}},
		Total:      240,
	})
	require.NoError(t, err)

	// The supplier disappears after the purchase was recorded. An items-only
	// update must still go through.
	delete(repo.suppliers, 3)

	_, err = svc.Update(context.Background(), testIdentity, purchase.ID, UpdatePurchaseRequest{
		Items: &[]PurchaseItemRequest{{ProductID: 20, Quantity: 6, Price: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(6), repo.stocks[20])

	// Supplying the stale supplier explicitly is still rejected.
	_, err = svc.Update(context.Background(), testIdentity, purchase.ID, UpdatePurchaseRequest{
		SupplierID: ptr(int64(3)),
	})
	require.ErrorIs(t, err, ErrForeignSupplier)
}

func TestUpdatePurchaseReversesOldStockThenAppliesNew(t *testing.T) {
	svc, repo := newTestService()

	purchase, err := svc.Create(context.Background(), testIdentity, CreatePurchaseRequest{
		SupplierID: ptr(int64(3)),
		Items:      []PurchaseItemRequest{{ProductID: 10, Quantity: 30, Price: 8}},
		Total:      240,
	})
	require.NoError(t, err)
	require.Equal(t, int64(50), repo.stocks[10])

	updated, err := svc.Update(context.Background(), testIdentity, purchase.ID, UpdatePurchaseRequest{
		Items: &[]PurchaseItemRequest{{ProductID: 20, Quantity: 6, Price: 4}},
		Total: ptr(24.0),
	})
	require.NoError(t, err)
	require.Equal(t, int64(20), repo.stocks[10])
	require.Equal(t, int64(6), repo.stocks[20])
	require.Equal(t, 24.0, updated.Total)
}

func TestUpdatePurchaseHeaderOnlyLeavesStockAlone(t *testing.T) {
	svc, repo := newTestService()

	purchase, err := svc.Create(context.Background(), testIdentity, CreatePurchaseRequest{
		SupplierID: ptr(int64(3)),
		Items:      []PurchaseItemRequest{{ProductID: 10, Quantity: 30, Price: 8}},
		Total:      240,
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), testIdentity, purchase.ID, UpdatePurchaseRequest{
		Notes:      ptr("credit terms 30 days"),
		BillNumber: ptr("SB/2024/118"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(50), repo.stocks[10])
	require.Equal(t, "SB/2024/118", updated.BillNumber)
	require.Equal(t, "credit terms 30 days", updated.Notes)
}

func TestDeletePurchaseRemovesStock(t *testing.T) {
	svc, repo := newTestService()

	purchase, err := svc.Create(context.Background(), testIdentity, CreatePurchaseRequest{
		SupplierID: ptr(int64(3)),
		Items:      []PurchaseItemRequest{{ProductID: 10, Quantity: 30, Price: 8}},
		Total:      240,
	})
	require.NoError(t, err)
	require.Equal(t, int64(50), repo.stocks[10])

	require.NoError(t, svc.Delete(context.Background(), testIdentity, purchase.ID))
	require.Equal(t, int64(20), repo.stocks[10])
	require.Empty(t, repo.purchases)

	err = svc.Delete(context.Background(), testIdentity, purchase.ID)
	require.ErrorIs(t, err, ErrPurchaseNotFound)
}

func ptr[T any](v T) *T { return &v }
