package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists products. It runs on any Querier, so the ownership
// checks used by the transaction managers participate in their transaction.
type Repository struct {
	q db.Querier
}

// NewRepository constructs a Repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// CountByIDs returns how many of the given product ids belong to the org.
// Callers compare against the distinct id count to detect foreign products.
func (r *Repository) CountByIDs(ctx context.Context, orgID int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE org_id = $1 AND id = ANY($2)`, orgID, ids).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("products: count by ids: %w", err)
	}
	return count, nil
}

// Get loads one product scoped to the org.
func (r *Repository) Get(ctx context.Context, orgID, id int64) (Product, error) {
	var p Product
	err := r.q.QueryRow(ctx, `SELECT id, org_id, name, sku, category, price, stock, is_active, created_at, updated_at
FROM products WHERE id = $1 AND org_id = $2`, id, orgID).
		Scan(&p.ID, &p.OrgID, &p.Name, &p.SKU, &p.Category, &p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
		}
		return Product{}, fmt.Errorf("products: get: %w", err)
	}
	return p, nil
}

// List returns products for the org with optional filters.
func (r *Repository) List(ctx context.Context, orgID int64, filters ListFilters) ([]Product, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.Query(ctx, `SELECT id, org_id, name, sku, category, price, stock, is_active, created_at, updated_at
FROM products
WHERE org_id = $1
  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR sku ILIKE '%' || $2 || '%')
  AND ($3::boolean IS NULL OR is_active = $3)
ORDER BY name ASC
LIMIT $4 OFFSET $5`, orgID, filters.Search, filters.IsActive, limit, filters.Offset)
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	defer rows.Close()

	list := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Name, &p.SKU, &p.Category, &p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Create inserts a product. Product names are unique per org.
func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.q.QueryRow(ctx, `INSERT INTO products (org_id, name, sku, category, price, stock, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
RETURNING id, created_at, updated_at`, p.OrgID, p.Name, p.SKU, p.Category, p.Price, p.Stock, p.IsActive).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, mapUniqueViolation(err, "products: create")
	}
	return p, nil
}

// Update writes catalogue fields. Stock is deliberately absent: only the
// stock ledger mutates it.
func (r *Repository) Update(ctx context.Context, p Product) error {
	tag, err := r.q.Exec(ctx, `UPDATE products
SET name = $1, sku = $2, category = $3, price = $4, is_active = $5, updated_at = NOW()
WHERE id = $6 AND org_id = $7`, p.Name, p.SKU, p.Category, p.Price, p.IsActive, p.ID, p.OrgID)
	if err != nil {
		return mapUniqueViolation(err, "products: update")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", p.ID, shared.ErrNotFound)
	}
	return nil
}

// Delete removes a product scoped to the org.
func (r *Repository) Delete(ctx context.Context, orgID, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("products: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func mapUniqueViolation(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("product name: %w", shared.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
