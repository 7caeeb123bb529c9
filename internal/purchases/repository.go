package purchases

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/suppliers"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/stock"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, orgID, id int64) (Purchase, error)
	List(ctx context.Context, orgID int64, filter ListFilter) ([]Purchase, error)
}

// TxRepository exposes every operation a purchase transaction touches,
// bound to a single database transaction.
type TxRepository interface {
	GetPurchase(ctx context.Context, orgID, id int64) (Purchase, error)
	InsertPurchase(ctx context.Context, purchase Purchase) (int64, error)
	UpdatePurchase(ctx context.Context, purchase Purchase, replaceItems bool) error
	DeletePurchase(ctx context.Context, orgID, id int64) error
	CountProducts(ctx context.Context, orgID int64, ids []int64) (int, error)
	SupplierExists(ctx context.Context, orgID, supplierID int64) (bool, error)
	ApplyStockDeltas(ctx context.Context, orgID int64, deltas []stock.Delta) error
}

// Repository persists purchases in PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	policy stock.Policy
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, policy stock.Policy) *Repository {
	return &Repository{pool: pool, policy: policy}
}

type txRepository struct {
	q         db.Querier
	products  *products.Repository
	suppliers *suppliers.Repository
	ledger    *stock.Ledger
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{
			q:         tx,
			products:  products.NewRepository(tx),
			suppliers: suppliers.NewRepository(tx),
			ledger:    stock.NewLedger(tx, r.policy),
		})
	})
}

// Get loads one purchase with items outside any transaction.
func (r *Repository) Get(ctx context.Context, orgID, id int64) (Purchase, error) {
	return getPurchase(ctx, r.pool, orgID, id)
}

// List returns purchases for the org, newest first.
func (r *Repository) List(ctx context.Context, orgID int64, filter ListFilter) ([]Purchase, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, org_id, date, bill_number, supplier_id, supplier_name, sub_total, tax_amount, discount, total, notes, created_by, created_at, updated_at
FROM purchases
WHERE org_id = $1
  AND ($2 = '' OR supplier_name ILIKE '%' || $2 || '%' OR bill_number ILIKE '%' || $2 || '%')
  AND ($3::timestamptz IS NULL OR date >= $3)
  AND ($4::timestamptz IS NULL OR date <= $4)
ORDER BY date DESC, id DESC
LIMIT $5 OFFSET $6`, orgID, filter.Search, filter.From, filter.To, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("purchases: list: %w", err)
	}
	defer rows.Close()

	list := []Purchase{}
	for rows.Next() {
		var p Purchase
		if err := scanPurchase(rows, &p); err != nil {
			return nil, err
		}
		list = append(list, p)
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

func (t *txRepository) GetPurchase(ctx context.Context, orgID, id int64) (Purchase, error) {
	return getPurchase(ctx, t.q, orgID, id)
}

func (t *txRepository) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `INSERT INTO purchases (org_id, date, bill_number, supplier_id, supplier_name, sub_total, tax_amount, discount, total, notes, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
RETURNING id`, p.OrgID, p.Date, p.BillNumber, p.SupplierID, p.SupplierName, p.SubTotal, p.TaxAmount, p.Discount, p.Total, p.Notes, p.CreatedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("purchases: insert: %w", err)
	}
	if err := insertItems(ctx, t.q, id, p.Items); err != nil {
		return 0, err
	}
	return id, nil
}

func (t *txRepository) UpdatePurchase(ctx context.Context, p Purchase, replaceItems bool) error {
	tag, err := t.q.Exec(ctx, `UPDATE purchases
SET date = $1, bill_number = $2, supplier_id = $3, supplier_name = $4, sub_total = $5, tax_amount = $6, discount = $7, total = $8, notes = $9, updated_at = NOW()
WHERE id = $10 AND org_id = $11`, p.Date, p.BillNumber, p.SupplierID, p.SupplierName, p.SubTotal, p.TaxAmount, p.Discount, p.Total, p.Notes, p.ID, p.OrgID)
	if err != nil {
		return fmt.Errorf("purchases: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPurchaseNotFound
	}
	if replaceItems {
		if _, err := t.q.Exec(ctx, `DELETE FROM purchase_items WHERE purchase_id = $1`, p.ID); err != nil {
			return fmt.Errorf("purchases: clear items: %w", err)
		}
		if err := insertItems(ctx, t.q, p.ID, p.Items); err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepository) DeletePurchase(ctx context.Context, orgID, id int64) error {
	if _, err := t.q.Exec(ctx, `DELETE FROM purchase_items WHERE purchase_id = $1`, id); err != nil {
		return fmt.Errorf("purchases: delete items: %w", err)
	}
	tag, err := t.q.Exec(ctx, `DELETE FROM purchases WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("purchases: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPurchaseNotFound
	}
	return nil
}

func (t *txRepository) CountProducts(ctx context.Context, orgID int64, ids []int64) (int, error) {
	return t.products.CountByIDs(ctx, orgID, ids)
}

func (t *txRepository) SupplierExists(ctx context.Context, orgID, supplierID int64) (bool, error) {
	return t.suppliers.Exists(ctx, orgID, supplierID)
}

func (t *txRepository) ApplyStockDeltas(ctx context.Context, orgID int64, deltas []stock.Delta) error {
	return t.ledger.ApplyDeltas(ctx, orgID, deltas)
}

type purchaseScanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row purchaseScanner, p *Purchase) error {
	return row.Scan(&p.ID, &p.OrgID, &p.Date, &p.BillNumber, &p.SupplierID, &p.SupplierName, &p.SubTotal, &p.TaxAmount, &p.Discount, &p.Total, &p.Notes, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
}

func getPurchase(ctx context.Context, q db.Querier, orgID, id int64) (Purchase, error) {
	var p Purchase
	row := q.QueryRow(ctx, `SELECT id, org_id, date, bill_number, supplier_id, supplier_name, sub_total, tax_amount, discount, total, notes, created_by, created_at, updated_at
FROM purchases WHERE id = $1 AND org_id = $2`, id, orgID)
	if err := scanPurchase(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, ErrPurchaseNotFound
		}
		return Purchase{}, fmt.Errorf("purchases: get: %w", err)
	}
	items, err := loadItems(ctx, q, p.ID)
	if err != nil {
		return Purchase{}, err
	}
	p.Items = items
	return p, nil
}

func loadItems(ctx context.Context, q db.Querier, purchaseID int64) ([]PurchaseItem, error) {
	rows, err := q.Query(ctx, `SELECT product_id, quantity, price FROM purchase_items WHERE purchase_id = $1 ORDER BY id ASC`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("purchases: load items: %w", err)
	}
	defer rows.Close()

	items := []PurchaseItem{}
	for rows.Next() {
		var it PurchaseItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func insertItems(ctx context.Context, q db.Querier, purchaseID int64, items []PurchaseItem) error {
	for _, it := range items {
		if _, err := q.Exec(ctx, `INSERT INTO purchase_items (purchase_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)`,
			purchaseID, it.ProductID, it.Quantity, it.Price); err != nil {
			return fmt.Errorf("purchases: insert item: %w", err)
		}
	}
	return nil
}
