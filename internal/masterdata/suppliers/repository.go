package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists suppliers over a Querier.
type Repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Exists reports whether the supplier belongs to the org.
func (r *Repository) Exists(ctx context.Context, orgID, id int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1 AND org_id = $2)`, id, orgID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("suppliers: exists: %w", err)
	}
	return exists, nil
}

func (r *Repository) Get(ctx context.Context, orgID, id int64) (Supplier, error) {
	var s Supplier
	err := r.q.QueryRow(ctx, `SELECT id, org_id, name, email, phone, address, created_at, updated_at
FROM suppliers WHERE id = $1 AND org_id = $2`, id, orgID).
		Scan(&s.ID, &s.OrgID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, fmt.Errorf("supplier %d: %w", id, shared.ErrNotFound)
		}
		return Supplier{}, fmt.Errorf("suppliers: get: %w", err)
	}
	return s, nil
}

func (r *Repository) List(ctx context.Context, orgID int64, search string) ([]Supplier, error) {
	rows, err := r.q.Query(ctx, `SELECT id, org_id, name, email, phone, address, created_at, updated_at
FROM suppliers
WHERE org_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
ORDER BY name ASC`, orgID, search)
	if err != nil {
		return nil, fmt.Errorf("suppliers: list: %w", err)
	}
	defer rows.Close()

	list := []Supplier{}
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.OrgID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *Repository) Create(ctx context.Context, s Supplier) (Supplier, error) {
	err := r.q.QueryRow(ctx, `INSERT INTO suppliers (org_id, name, email, phone, address, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
RETURNING id, created_at, updated_at`, s.OrgID, s.Name, s.Email, s.Phone, s.Address).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Supplier{}, fmt.Errorf("suppliers: create: %w", err)
	}
	return s, nil
}

func (r *Repository) Update(ctx context.Context, s Supplier) error {
	tag, err := r.q.Exec(ctx, `UPDATE suppliers
SET name = $1, email = $2, phone = $3, address = $4, updated_at = NOW()
WHERE id = $5 AND org_id = $6`, s.Name, s.Email, s.Phone, s.Address, s.ID, s.OrgID)
	if err != nil {
		return fmt.Errorf("suppliers: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("supplier %d: %w", s.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, orgID, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM suppliers WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("suppliers: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("supplier %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
