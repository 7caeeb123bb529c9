package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists customers over a Querier.
type Repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Exists reports whether the customer belongs to the org.
func (r *Repository) Exists(ctx context.Context, orgID, id int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1 AND org_id = $2)`, id, orgID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("customers: exists: %w", err)
	}
	return exists, nil
}

func (r *Repository) Get(ctx context.Context, orgID, id int64) (Customer, error) {
	var c Customer
	err := r.q.QueryRow(ctx, `SELECT id, org_id, name, email, phone, company, created_at, updated_at
FROM customers WHERE id = $1 AND org_id = $2`, id, orgID).
		Scan(&c.ID, &c.OrgID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
		}
		return Customer{}, fmt.Errorf("customers: get: %w", err)
	}
	return c, nil
}

func (r *Repository) List(ctx context.Context, orgID int64, search string) ([]Customer, error) {
	rows, err := r.q.Query(ctx, `SELECT id, org_id, name, email, phone, company, created_at, updated_at
FROM customers
WHERE org_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
ORDER BY name ASC`, orgID, search)
	if err != nil {
		return nil, fmt.Errorf("customers: list: %w", err)
	}
	defer rows.Close()

	list := []Customer{}
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *Repository) Create(ctx context.Context, c Customer) (Customer, error) {
	err := r.q.QueryRow(ctx, `INSERT INTO customers (org_id, name, email, phone, company, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
RETURNING id, created_at, updated_at`, c.OrgID, c.Name, c.Email, c.Phone, c.Company).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Customer{}, fmt.Errorf("customers: create: %w", err)
	}
	return c, nil
}

func (r *Repository) Update(ctx context.Context, c Customer) error {
	tag, err := r.q.Exec(ctx, `UPDATE customers
SET name = $1, email = $2, phone = $3, company = $4, updated_at = NOW()
WHERE id = $5 AND org_id = $6`, c.Name, c.Email, c.Phone, c.Company, c.ID, c.OrgID)
	if err != nil {
		return fmt.Errorf("customers: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %d: %w", c.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, orgID, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM customers WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("customers: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
