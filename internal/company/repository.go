package company

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists company profiles over a Querier.
type Repository struct {
	q db.Querier
}

// NewRepository constructs a Repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Get loads the profile for the org.
func (r *Repository) Get(ctx context.Context, orgID int64) (Profile, error) {
	var p Profile
	err := r.q.QueryRow(ctx, `SELECT org_id, name, address, gstin, email, phone, website, logo_url,
bank_account_name, bank_account_no, bank_ifsc, bank_name,
invoice_footer, invoice_terms, created_by, created_at, updated_at
FROM company_profiles WHERE org_id = $1`, orgID).
		Scan(&p.OrgID, &p.Name, &p.Address, &p.GSTIN, &p.Email, &p.Phone, &p.Website, &p.LogoURL,
			&p.Bank.AccountName, &p.Bank.AccountNo, &p.Bank.IFSC, &p.Bank.BankName,
			&p.InvoiceFooter, &p.InvoiceTerms, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, fmt.Errorf("company profile: %w", shared.ErrProfileNotConfigured)
		}
		return Profile{}, fmt.Errorf("company: get profile: %w", err)
	}
	return p, nil
}

// Upsert creates or replaces the profile keyed by org.
func (r *Repository) Upsert(ctx context.Context, p Profile) (Profile, error) {
	err := r.q.QueryRow(ctx, `INSERT INTO company_profiles (org_id, name, address, gstin, email, phone, website, logo_url,
bank_account_name, bank_account_no, bank_ifsc, bank_name, invoice_footer, invoice_terms, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
ON CONFLICT (org_id) DO UPDATE SET
  name = EXCLUDED.name, address = EXCLUDED.address, gstin = EXCLUDED.gstin,
  email = EXCLUDED.email, phone = EXCLUDED.phone, website = EXCLUDED.website,
  logo_url = EXCLUDED.logo_url, bank_account_name = EXCLUDED.bank_account_name,
  bank_account_no = EXCLUDED.bank_account_no, bank_ifsc = EXCLUDED.bank_ifsc,
  bank_name = EXCLUDED.bank_name, invoice_footer = EXCLUDED.invoice_footer,
  invoice_terms = EXCLUDED.invoice_terms, updated_at = NOW()
RETURNING created_at, updated_at`,
		p.OrgID, p.Name, p.Address, p.GSTIN, p.Email, p.Phone, p.Website, p.LogoURL,
		p.Bank.AccountName, p.Bank.AccountNo, p.Bank.IFSC, p.Bank.BankName,
		p.InvoiceFooter, p.InvoiceTerms, p.CreatedBy).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Profile{}, fmt.Errorf("company: upsert profile: %w", err)
	}
	return p, nil
}
