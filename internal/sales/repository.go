package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/customers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/stock"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, orgID, id int64) (Sale, error)
	List(ctx context.Context, orgID int64, filter ListFilter) ([]Sale, error)
}

// TxRepository exposes every operation a sale transaction touches. All
// methods run on the same database transaction, so the invoice counter, the
// stock deltas and the sale record commit or roll back together.
type TxRepository interface {
	GetSale(ctx context.Context, orgID, id int64) (Sale, error)
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	UpdateSale(ctx context.Context, sale Sale, replaceItems bool) error
	DeleteSale(ctx context.Context, orgID, id int64) error
	CountProducts(ctx context.Context, orgID int64, ids []int64) (int, error)
	CustomerExists(ctx context.Context, orgID, customerID int64) (bool, error)
	AllocateNumber(ctx context.Context, orgID int64, kind numbering.Kind) (numbering.DocumentNumber, error)
	ApplyStockDeltas(ctx context.Context, orgID int64, deltas []stock.Delta) error
}

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	policy stock.Policy
}

// NewRepository constructs Repository. The stock policy is handed to the
// ledger bound inside each transaction.
func NewRepository(pool *pgxpool.Pool, policy stock.Policy) *Repository {
	return &Repository{pool: pool, policy: policy}
}

type txRepository struct {
	q         db.Querier
	products  *products.Repository
	customers *customers.Repository
	numbers   *numbering.Store
	ledger    *stock.Ledger
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{
			q:         tx,
			products:  products.NewRepository(tx),
			customers: customers.NewRepository(tx),
			numbers:   numbering.NewStore(tx),
			ledger:    stock.NewLedger(tx, r.policy),
		})
	})
}

// Get loads one sale with items outside any transaction.
func (r *Repository) Get(ctx context.Context, orgID, id int64) (Sale, error) {
	return getSale(ctx, r.pool, orgID, id)
}

// List returns sales for the org, newest first.
func (r *Repository) List(ctx context.Context, orgID int64, filter ListFilter) ([]Sale, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, org_id, date, invoice_no, customer_id, customer_name, total, payments_total, payment_status, created_by, created_at, updated_at
FROM sales
WHERE org_id = $1
  AND ($2 = '' OR customer_name ILIKE '%' || $2 || '%' OR invoice_no ILIKE '%' || $2 || '%')
  AND ($3::timestamptz IS NULL OR date >= $3)
  AND ($4::timestamptz IS NULL OR date <= $4)
ORDER BY date DESC, id DESC
LIMIT $5 OFFSET $6`, orgID, filter.Search, filter.From, filter.To, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("sales: list: %w", err)
	}
	defer rows.Close()

	list := []Sale{}
	for rows.Next() {
		var s Sale
		if err := scanSale(rows, &s); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range list {
		items, err := loadItems(ctx, r.pool, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Items = items
	}
	return list, nil
}

func (t *txRepository) GetSale(ctx context.Context, orgID, id int64) (Sale, error) {
	return getSale(ctx, t.q, orgID, id)
}

func (t *txRepository) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `INSERT INTO sales (org_id, date, invoice_no, customer_id, customer_name, total, payments_total, payment_status, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
RETURNING id`, sale.OrgID, sale.Date, sale.InvoiceNo, sale.CustomerID, sale.CustomerName, sale.Total, sale.PaymentsTotal, string(sale.PaymentStatus), sale.CreatedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("sales: insert: %w", err)
	}
	if err := insertItems(ctx, t.q, id, sale.Items); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateSale writes the sale header and, when replaceItems is set, swaps the
// item list wholesale. Payment fields are deliberately not written here.
func (t *txRepository) UpdateSale(ctx context.Context, sale Sale, replaceItems bool) error {
	tag, err := t.q.Exec(ctx, `UPDATE sales
SET date = $1, customer_id = $2, customer_name = $3, total = $4, updated_at = NOW()
WHERE id = $5 AND org_id = $6`, sale.Date, sale.CustomerID, sale.CustomerName, sale.Total, sale.ID, sale.OrgID)
	if err != nil {
		return fmt.Errorf("sales: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	if replaceItems {
		if _, err := t.q.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, sale.ID); err != nil {
			return fmt.Errorf("sales: clear items: %w", err)
		}
		if err := insertItems(ctx, t.q, sale.ID, sale.Items); err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepository) DeleteSale(ctx context.Context, orgID, id int64) error {
	if _, err := t.q.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, id); err != nil {
		return fmt.Errorf("sales: delete items: %w", err)
	}
	tag, err := t.q.Exec(ctx, `DELETE FROM sales WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("sales: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	return nil
}

func (t *txRepository) CountProducts(ctx context.Context, orgID int64, ids []int64) (int, error) {
	return t.products.CountByIDs(ctx, orgID, ids)
}

func (t *txRepository) CustomerExists(ctx context.Context, orgID, customerID int64) (bool, error) {
	return t.customers.Exists(ctx, orgID, customerID)
}

func (t *txRepository) AllocateNumber(ctx context.Context, orgID int64, kind numbering.Kind) (numbering.DocumentNumber, error) {
	return t.numbers.Allocate(ctx, orgID, kind)
}

func (t *txRepository) ApplyStockDeltas(ctx context.Context, orgID int64, deltas []stock.Delta) error {
	return t.ledger.ApplyDeltas(ctx, orgID, deltas)
}

type saleScanner interface {
	Scan(dest ...any) error
}

func scanSale(row saleScanner, s *Sale) error {
	var status string
	if err := row.Scan(&s.ID, &s.OrgID, &s.Date, &s.InvoiceNo, &s.CustomerID, &s.CustomerName, &s.Total, &s.PaymentsTotal, &status, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	s.PaymentStatus = PaymentStatus(status)
	return nil
}

func getSale(ctx context.Context, q db.Querier, orgID, id int64) (Sale, error) {
	var s Sale
	row := q.QueryRow(ctx, `SELECT id, org_id, date, invoice_no, customer_id, customer_name, total, payments_total, payment_status, created_by, created_at, updated_at
FROM sales WHERE id = $1 AND org_id = $2`, id, orgID)
	if err := scanSale(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrSaleNotFound
		}
		return Sale{}, fmt.Errorf("sales: get: %w", err)
	}
	items, err := loadItems(ctx, q, s.ID)
	if err != nil {
		return Sale{}, err
	}
	s.Items = items
	return s, nil
}

func loadItems(ctx context.Context, q db.Querier, saleID int64) ([]SaleItem, error) {
	rows, err := q.Query(ctx, `SELECT product_id, quantity, price FROM sale_items WHERE sale_id = $1 ORDER BY id ASC`, saleID)
	if err != nil {
		return nil, fmt.Errorf("sales: load items: %w", err)
	}
	defer rows.Close()

	items := []SaleItem{}
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func insertItems(ctx context.Context, q db.Querier, saleID int64, items []SaleItem) error {
	for _, it := range items {
		if _, err := q.Exec(ctx, `INSERT INTO sale_items (sale_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)`,
			saleID, it.ProductID, it.Quantity, it.Price); err != nil {
			return fmt.Errorf("sales: insert item: %w", err)
		}
	}
	return nil
}
