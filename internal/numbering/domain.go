// Package numbering issues per-organisation document numbers (invoices, cash
// bills) from monotonic counters. Allocation always runs on the caller's
// transaction querier so an aborted business operation also rolls back the
// counter increment.
package numbering

import (
	"fmt"
)

// Kind selects which per-org sequence to draw from.
type Kind string

const (
	// KindInvoice numbers sales invoices.
	KindInvoice Kind = "invoice"
	// KindCashBill numbers cash bills.
	KindCashBill Kind = "cash_bill"
)

// Valid reports whether the kind is a known sequence.
func (k Kind) Valid() bool {
	return k == KindInvoice || k == KindCashBill
}

// DefaultPrefix returns the prefix used when a sequence is first provisioned.
func (k Kind) DefaultPrefix() string {
	switch k {
	case KindCashBill:
		return "CB-"
	default:
		return "INV-"
	}
}

// Sequence is the persisted counter state for one org and kind.
type Sequence struct {
	OrgID      int64  `json:"org_id"`
	Kind       Kind   `json:"kind"`
	Prefix     string `json:"prefix"`
	NextNumber int64  `json:"next_number"`
}

// DocumentNumber is one allocated number.
type DocumentNumber struct {
	Prefix string
	Number int64
}

// String formats the document number, zero-padded to 4 digits (e.g. INV-0007).
func (d DocumentNumber) String() string {
	return Format(d.Prefix, d.Number)
}

// Format renders prefix + number zero-padded to 4 digits.
func Format(prefix string, number int64) string {
	return fmt.Sprintf("%s%04d", prefix, number)
}
