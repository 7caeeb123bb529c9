// Package company manages the per-organisation company profile: identity
// details, bank account, invoice footer text and the administrative surface
// for the document numbering sequences.
package company

import "time"

// BankDetails holds the bank account printed on invoices.
type BankDetails struct {
	AccountName string `json:"account_name,omitempty"`
	AccountNo   string `json:"account_no,omitempty"`
	IFSC        string `json:"ifsc,omitempty"`
	BankName    string `json:"bank_name,omitempty"`
}

// Profile is the company profile for one organisation. An org sells only
// after its profile exists: invoice numbering requires it.
type Profile struct {
	OrgID         int64       `json:"org_id"`
	Name          string      `json:"name"`
	Address       string      `json:"address,omitempty"`
	GSTIN         string      `json:"gstin,omitempty"`
	Email         string      `json:"email,omitempty"`
	Phone         string      `json:"phone,omitempty"`
	Website       string      `json:"website,omitempty"`
	LogoURL       string      `json:"logo_url,omitempty"`
	Bank          BankDetails `json:"bank"`
	InvoiceFooter string      `json:"invoice_footer,omitempty"`
	InvoiceTerms  string      `json:"invoice_terms,omitempty"`
	CreatedBy     int64       `json:"created_by,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// SequenceInput carries administrative overrides for one numbering sequence.
// NextNumber may only move a sequence forward.
type SequenceInput struct {
	Prefix     string `json:"prefix,omitempty"`
	NextNumber *int64 `json:"next_number,omitempty"`
}

// SaveInput is the create-or-update payload for the profile.
type SaveInput struct {
	Name          string         `json:"name" validate:"required"`
	Address       string         `json:"address"`
	GSTIN         string         `json:"gstin"`
	Email         string         `json:"email" validate:"omitempty,email"`
	Phone         string         `json:"phone"`
	Website       string         `json:"website"`
	LogoURL       string         `json:"logo_url"`
	Bank          BankDetails    `json:"bank"`
	InvoiceFooter string         `json:"invoice_footer"`
	InvoiceTerms  string         `json:"invoice_terms"`
	Invoice       *SequenceInput `json:"invoice,omitempty"`
	CashBill      *SequenceInput `json:"cash_bill,omitempty"`
}
