// Package cashbills is the payment recorder. Each recorded payment becomes
// an immutable cash bill with its own allocated number and moves the parent
// sale's payment totals forward. Cash bills are never edited or deleted;
// corrections happen by recording further payments.
package cashbills

import "time"

// PaymentMode is the tender used for a payment entry.
type PaymentMode string

const (
	ModeCash   PaymentMode = "cash"
	ModeCard   PaymentMode = "card"
	ModeUPI    PaymentMode = "upi"
	ModeBank   PaymentMode = "bank"
	ModeWallet PaymentMode = "wallet"
	ModeCredit PaymentMode = "credit"
)

// Valid reports whether the mode is one of the supported tenders.
func (m PaymentMode) Valid() bool {
	switch m {
	case ModeCash, ModeCard, ModeUPI, ModeBank, ModeWallet, ModeCredit:
		return true
	}
	return false
}

// Payment is one entry of a split payment: a single tender and its amount.
type Payment struct {
	Mode   PaymentMode `json:"mode"`
	Amount float64     `json:"amount"`
	RefNo  string      `json:"ref_no,omitempty"`
	Note   string      `json:"note,omitempty"`
}

// CashBill is one recorded payment against a sale. A bill may split its
// total across several tenders; TotalPaid is always the sum of the entries.
type CashBill struct {
	ID           int64     `json:"id"`
	OrgID        int64     `json:"org_id"`
	BillNo       string    `json:"bill_no"`
	SaleID       int64     `json:"sale_id"`
	CustomerName string    `json:"customer_name,omitempty"`
	Payments     []Payment `json:"payments"`
	TotalPaid    float64   `json:"total_paid"`
	Date         time.Time `json:"date"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}
