package cashbills

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/sales"
)

// SaleBalance is the slice of the sale a payment needs: what it is worth and
// what has been paid so far.
type SaleBalance struct {
	SaleID        int64
	CustomerName  string
	Total         float64
	PaymentsTotal float64
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, orgID, id int64) (CashBill, error)
	List(ctx context.Context, orgID int64, filter ListFilter) ([]CashBill, error)
}

// TxRepository covers one payment recording: the sale row is locked, the
// bill number allocated, the bill inserted and the sale totals advanced, all
// on the same transaction.
type TxRepository interface {
	LockSaleBalance(ctx context.Context, orgID, saleID int64) (SaleBalance, error)
	AllocateNumber(ctx context.Context, orgID int64, kind numbering.Kind) (numbering.DocumentNumber, error)
	InsertBill(ctx context.Context, bill CashBill) (int64, error)
	UpdateSalePayments(ctx context.Context, orgID, saleID int64, paymentsTotal float64, status sales.PaymentStatus) error
}

// ListFilter narrows cash bill listings.
type ListFilter struct {
	SaleID int64
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// Repository persists cash bills in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	q       db.Querier
	numbers *numbering.Store
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{q: tx, numbers: numbering.NewStore(tx)})
	})
}

// Get loads one cash bill with its payment entries.
func (r *Repository) Get(ctx context.Context, orgID, id int64) (CashBill, error) {
	var b CashBill
	err := r.pool.QueryRow(ctx, `SELECT id, org_id, bill_no, sale_id, customer_name, total_paid, date, created_by, created_at
FROM cash_bills WHERE id = $1 AND org_id = $2`, id, orgID).
		Scan(&b.ID, &b.OrgID, &b.BillNo, &b.SaleID, &b.CustomerName, &b.TotalPaid, &b.Date, &b.CreatedBy, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CashBill{}, ErrBillNotFound
		}
		return CashBill{}, fmt.Errorf("cashbills: get: %w", err)
	}
	payments, err := loadPayments(ctx, r.pool, b.ID)
	if err != nil {
		return CashBill{}, err
	}
	b.Payments = payments
	return b, nil
}

// List returns cash bills for the org, newest first.
func (r *Repository) List(ctx context.Context, orgID int64, filter ListFilter) ([]CashBill, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, org_id, bill_no, sale_id, customer_name, total_paid, date, created_by, created_at
FROM cash_bills
WHERE org_id = $1
  AND ($2 = 0 OR sale_id = $2)
  AND ($3::timestamptz IS NULL OR date >= $3)
  AND ($4::timestamptz IS NULL OR date <= $4)
ORDER BY date DESC, id DESC
LIMIT $5 OFFSET $6`, orgID, filter.SaleID, filter.From, filter.To, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("cashbills: list: %w", err)
	}
	defer rows.Close()

	list := []CashBill{}
	for rows.Next() {
		var b CashBill
		if err := rows.Scan(&b.ID, &b.OrgID, &b.BillNo, &b.SaleID, &b.CustomerName, &b.TotalPaid, &b.Date, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range list {
		payments, err := loadPayments(ctx, r.pool, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Payments = payments
	}
	return list, nil
}

// LockSaleBalance reads the sale's totals under FOR UPDATE so concurrent
// payments against the same sale serialize.
func (t *txRepository) LockSaleBalance(ctx context.Context, orgID, saleID int64) (SaleBalance, error) {
	var bal SaleBalance
	err := t.q.QueryRow(ctx, `SELECT id, customer_name, total, payments_total
FROM sales WHERE id = $1 AND org_id = $2 FOR UPDATE`, saleID, orgID).
		Scan(&bal.SaleID, &bal.CustomerName, &bal.Total, &bal.PaymentsTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SaleBalance{}, sales.ErrSaleNotFound
		}
		return SaleBalance{}, fmt.Errorf("cashbills: lock sale: %w", err)
	}
	return bal, nil
}

func (t *txRepository) AllocateNumber(ctx context.Context, orgID int64, kind numbering.Kind) (numbering.DocumentNumber, error) {
	return t.numbers.Allocate(ctx, orgID, kind)
}

func (t *txRepository) InsertBill(ctx context.Context, bill CashBill) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `INSERT INTO cash_bills (org_id, bill_no, sale_id, customer_name, total_paid, date, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
RETURNING id`, bill.OrgID, bill.BillNo, bill.SaleID, bill.CustomerName, bill.TotalPaid, bill.Date, bill.CreatedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("cashbills: insert: %w", err)
	}
	for _, p := range bill.Payments {
		if _, err := t.q.Exec(ctx, `INSERT INTO cash_bill_payments (cash_bill_id, mode, amount, ref_no, note) VALUES ($1, $2, $3, $4, $5)`,
			id, string(p.Mode), p.Amount, p.RefNo, p.Note); err != nil {
			return 0, fmt.Errorf("cashbills: insert payment: %w", err)
		}
	}
	return id, nil
}

func (t *txRepository) UpdateSalePayments(ctx context.Context, orgID, saleID int64, paymentsTotal float64, status sales.PaymentStatus) error {
	tag, err := t.q.Exec(ctx, `UPDATE sales SET payments_total = $1, payment_status = $2, updated_at = NOW()
WHERE id = $3 AND org_id = $4`, paymentsTotal, string(status), saleID, orgID)
	if err != nil {
		return fmt.Errorf("cashbills: update sale payments: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sales.ErrSaleNotFound
	}
	return nil
}

func loadPayments(ctx context.Context, q db.Querier, billID int64) ([]Payment, error) {
	rows, err := q.Query(ctx, `SELECT mode, amount, ref_no, note FROM cash_bill_payments WHERE cash_bill_id = $1 ORDER BY id ASC`, billID)
	if err != nil {
		return nil, fmt.Errorf("cashbills: load payments: %w", err)
	}
	defer rows.Close()

	payments := []Payment{}
	for rows.Next() {
		var p Payment
		var mode string
		if err := rows.Scan(&mode, &p.Amount, &p.RefNo, &p.Note); err != nil {
			return nil, err
		}
		p.Mode = PaymentMode(mode)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
