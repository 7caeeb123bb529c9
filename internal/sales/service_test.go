package sales

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/stock"
)

type memorySalesRepo struct {
	sales       map[int64]Sale
	stocks      map[int64]int64
	customers   map[int64]bool
	nextSaleID  int64
	nextInvoice int64
}

func newMemorySalesRepo() *memorySalesRepo {
	return &memorySalesRepo{
		sales:       make(map[int64]Sale),
		stocks:      make(map[int64]int64),
		customers:   make(map[int64]bool),
		nextInvoice: 1,
	}
}

func (r *memorySalesRepo) snapshot() *memorySalesRepo {
	cp := newMemorySalesRepo()
	cp.nextSaleID = r.nextSaleID
	cp.nextInvoice = r.nextInvoice
	for k, v := range r.sales {
		v.Items = append([]SaleItem(nil), v.Items...)
		cp.sales[k] = v
	}
	for k, v := range r.stocks {
		cp.stocks[k] = v
	}
	for k, v := range r.customers {
		cp.customers[k] = v
	}
	return cp
}

func (r *memorySalesRepo) restore(from *memorySalesRepo) {
	r.sales = from.sales
	r.stocks = from.stocks
	r.customers = from.customers
	r.nextSaleID = from.nextSaleID
	r.nextInvoice = from.nextInvoice
}

// WithTx mimics transactional semantics: an error from fn rolls every write
// back, including the invoice counter.
func (r *memorySalesRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	before := r.snapshot()
	if err := fn(ctx, (*memorySalesTx)(r)); err != nil {
		r.restore(before)
		return err
	}
	return nil
}

func (r *memorySalesRepo) Get(ctx context.Context, orgID, id int64) (Sale, error) {
	s, ok := r.sales[id]
	if !ok || s.OrgID != orgID {
		return Sale{}, ErrSaleNotFound
	}
	return s, nil
}

func (r *memorySalesRepo) List(ctx context.Context, orgID int64, filter ListFilter) ([]Sale, error) {
	out := []Sale{}
	for _, s := range r.sales {
		if s.OrgID == orgID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memorySalesTx memorySalesRepo

func (t *memorySalesTx) GetSale(ctx context.Context, orgID, id int64) (Sale, error) {
	return (*memorySalesRepo)(t).Get(ctx, orgID, id)
}

func (t *memorySalesTx) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	t.nextSaleID++
	sale.ID = t.nextSaleID
	t.sales[sale.ID] = sale
	return sale.ID, nil
}

func (t *memorySalesTx) UpdateSale(ctx context.Context, sale Sale, replaceItems bool) error {
	stored, ok := t.sales[sale.ID]
	if !ok || stored.OrgID != sale.OrgID {
		return ErrSaleNotFound
	}
	stored.Date = sale.Date
	stored.CustomerID = sale.CustomerID
	stored.CustomerName = sale.CustomerName
	stored.Total = sale.Total
	if replaceItems {
		stored.Items = append([]SaleItem(nil), sale.Items...)
	}
	t.sales[sale.ID] = stored
	return nil
}

func (t *memorySalesTx) DeleteSale(ctx context.Context, orgID, id int64) error {
	s, ok := t.sales[id]
	if !ok || s.OrgID != orgID {
		return ErrSaleNotFound
	}
	delete(t.sales, id)
	return nil
}

func (t *memorySalesTx) CountProducts(ctx context.Context, orgID int64, ids []int64) (int, error) {
	count := 0
	for _, id := range ids {
		if _, ok := t.stocks[id]; ok {
			count++
		}
	}
	return count, nil
}

func (t *memorySalesTx) CustomerExists(ctx context.Context, orgID, customerID int64) (bool, error) {
	return t.customers[customerID], nil
}

func (t *memorySalesTx) AllocateNumber(ctx context.Context, orgID int64, kind numbering.Kind) (numbering.DocumentNumber, error) {
	n := t.nextInvoice
	t.nextInvoice++
	return numbering.DocumentNumber{Prefix: "INV-", Number: n}, nil
}

func (t *memorySalesTx) ApplyStockDeltas(ctx context.Context, orgID int64, deltas []stock.Delta) error {
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

func newTestService() (*Service, *memorySalesRepo) {
	repo := newMemorySalesRepo()
	repo.stocks[10] = 100
	repo.stocks[20] = 50
	repo.customers[5] = true
	return NewService(repo, noopAudit{}), repo
}

func TestCreateSaleAllocatesInvoiceAndDecrementsStock(t *testing.T) {
	svc, repo := newTestService()

	sale, err := svc.Create(context.Background(), testIdentity, CreateSaleRequest{
		CustomerID: ptr(int64(5)),
		Items: []SaleItemRequest{
			{ProductID: 10, Quantity: 3, Price: 25},
			{ProductID: 20, Quantity: 2, Price: 12.5},
		},
		Total: 100,
	})
	require.NoError(t, err)
	require.Equal(t, "INV-0001", sale.InvoiceNo)
	require.Equal(t, PaymentStatusUnpaid, sale.PaymentStatus)
	require.Zero(t, sale.PaymentsTotal)
	require.Equal(t, int64(97), repo.stocks[10])
	require.Equal(t, int64(48), repo.stocks[20])

	second, err := svc.Create(context.Background(), testIdentity, CreateSaleRequest{
		CustomerName: "Walk-in",
		Items:        []SaleItemRequest{{ProductID: 10, Quantity: 1, Price: 25}},
		Total:        25,
	})
	require.NoError(t, err)
	require.Equal(t, "INV-0002", second.InvoiceNo)
}

func TestCreateSaleUnknownProductRollsBackEverything(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), testIdentity, CreateSaleRequest{
		CustomerID: ptr(int64(5)),
		Items: []SaleItemRequest{
			{ProductID: 10, Quantity: 3, Price: 25},
			{ProductID: 999, Quantity: 1, Price: 5},
		},
		Total: 80,
	})
	require.ErrorIs(t, err, shared.ErrForeignReference)
	require.Equal(t, int64(100), repo.stocks[10])
	require.Equal(t, int64(1), repo.nextInvoice)
	require.Empty(t, repo.sales)
}

func TestCreateSaleUnknownCustomerRejected(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), testIdentity, CreateSaleRequest{
		CustomerID: ptr(int64(404)),
		Items:      []SaleItemRequest{{ProductID: 10, Quantity: 1, Price: 25}},
		Total:      25,
	})
	require.ErrorIs(t, err, ErrForeignCustomer)
	require.Equal(t, int64(1), repo.nextInvoice)
}

func TestCreateSaleValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, testIdentity, CreateSaleRequest{
		Items: []SaleItemRequest{{ProductID: 10, Quantity: 1, Price: 25}},
		Total: 25,
	})
	require.ErrorIs(t, err, ErrNoCustomer)

	_, err = svc.Create(ctx, testIdentity, CreateSaleRequest{CustomerName: "A", Total: 0})
	require.ErrorIs(t, err, ErrEmptyItems)

	_, err = svc.Create(ctx, testIdentity, CreateSaleRequest{
		CustomerName: "A",
		Items:        []SaleItemRequest{{ProductID: 10, Quantity: 0, Price: 25}},
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Create(ctx, testIdentity, CreateSaleRequest{
		CustomerName: "A",
		Items:        []SaleItemRequest{{ProductID: 10, Quantity: 1, Price: 25}},
		Total:        -1,
	})
	require.ErrorIs(t, err, ErrInvalidTotal)
}

func TestUpdateSaleReversesOldStockThenAppliesNew(t *testing.T) {
	svc, repo := newTestService()

	sale, err := svc.Create(context.Background(), testIdentity, CreateSaleRequest{
		CustomerID: ptr(int64(5)),
		Items:      []SaleItemRequest{{ProductID: 10, Quantity: 4, Price: 25}},
		Total:      100,
	})
	require.NoError(t, err)
	require.Equal(t, int64(96), repo.stocks[10])

	updated, err := svc.Update(context.Background(), testIdentity, sale.ID, UpdateSaleRequest{
		Items: &[]SaleItemRequest{{ProductID: 20, Quantity: 5, Price: 10}},
		Total: ptr(50.0),
	})
	require.NoError(t, err)
	require.Equal(t, int64(100), repo.stocks[10])
	require.Equal(t, int64(45), repo.stocks[20])
	require.Equal(t, 50.0, updated.Total)
	require.Equal(t, "INV-0001", updated.InvoiceNo)
}

func TestUpdateSaleNeverTouchesPaymentFields(t *testing.T) {
	svc, repo := newTestService()

	sale, err := svc.Create(context.Background(), testIdentity, CreateSaleRequest{
		CustomerID: ptr(int64(5)),
		Items:      []SaleItemRequest{{ProductID: 10, Quantity: 1, Price: 25}},
		Total:      25,
	})
	require.NoError(t, err)

	stored := repo.sales[sale.ID]
	stored.PaymentsTotal = 10
	stored.PaymentStatus = PaymentStatusPartial
	repo.sales[sale.ID] = stored

	updated, err := svc.Update(context.Background(), testIdentity, sale.ID, UpdateSaleRequest{
		Total: ptr(30.0),
	})
	require.NoError(t, err)
	require.Equal(t, 10.0, updated.PaymentsTotal)
	require.Equal(t, PaymentStatusPartial, updated.PaymentStatus)
}

func TestUpdateSaleUnknownProductRollsBack(t *testing.T) {
	svc, repo := newTestService()

	sale, err := svc.Create(context.Background(), testIdentity, CreateSaleRequest{
		CustomerID: ptr(int64(5)),
		Items:      []SaleItemRequest{{ProductID: 10, Quantity: 4, Price: 25}},
		Total:      100,
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), testIdentity, sale.ID, UpdateSaleRequest{
		Items: &[]SaleItemRequest{{ProductID: 999, Quantity: 1, Price: 5}},
	})
	require.ErrorIs(t, err, shared.ErrForeignReference)
	require.Equal(t, int64(96), repo.stocks[10])
	require.Len(t, repo.sales[sale.ID].Items, 1)
	require.Equal(t, int64(10), repo.sales[sale.ID].Items[0].ProductID)
}

func TestUpdateSaleItemsOnlySkipsCustomerCheck(t *testing.T) {
	svc, repo := newTestService()

	sale, err := svc.Create(context.Background(), testIdentity, CreateSaleRequest{
		CustomerID: ptr(int64(5)),
		Items:      []SaleItemRequest{{ProductID: 10, Quantity: 4, Price: 25}},
		Total:      100,
	})
	require.NoError(t, err)

	// The customer disappears after the sale was made. An items-only update
	// must still go through.
	delete(repo.customers, 5)

	_, err = svc.Update(context.Background(), testIdentity, sale.ID, UpdateSaleRequest{
		Items: &[]SaleItemRequest{{ProductID: 20, Quantity: 2, Price: 30}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(48), repo.stocks[20])

	// Supplying the stale customer explicitly is still rejected.
	_, err = svc.Update(context.Background(), testIdentity, sale.ID, UpdateSaleRequest{
		CustomerID: ptr(int64(5)),
	})
	require.ErrorIs(t, err, ErrForeignCustomer)
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	svc, repo := newTestService()

	sale, err := svc.Create(context.Background(), testIdentity, CreateSaleRequest{
		CustomerID: ptr(int64(5)),
		Items:      []SaleItemRequest{{ProductID: 10, Quantity: 6, Price: 10}},
		Total:      60,
	})
	require.NoError(t, err)
	require.Equal(t, int64(94), repo.stocks[10])

	require.NoError(t, svc.Delete(context.Background(), testIdentity, sale.ID))
	require.Equal(t, int64(100), repo.stocks[10])
	require.Empty(t, repo.sales)

	err = svc.Delete(context.Background(), testIdentity, sale.ID)
	require.ErrorIs(t, err, ErrSaleNotFound)
}

func TestGetSaleScopedToOrg(t *testing.T) {
	svc, _ := newTestService()

	sale, err := svc.Create(context.Background(), testIdentity, CreateSaleRequest{
		CustomerID: ptr(int64(5)),
		Items:      []SaleItemRequest{{ProductID: 10, Quantity: 1, Price: 25}},
		Total:      25,
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), shared.Identity{OrgID: 2, UserID: 1}, sale.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func ptr[T any](v T) *T { return &v }
