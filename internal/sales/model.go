// Package sales is the sale transaction manager: creation, update and
// deletion of sales execute as one atomic unit covering validation, invoice
// numbering, stock movement and the sale record itself.
package sales

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/stock"
)

// PaymentStatus classifies how much of a sale's total has been paid.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// DerivePaymentStatus is the single source of truth for payment status. It is
// a pure function of the two totals; recomputing from the same inputs always
// yields the same status.
func DerivePaymentStatus(total, paymentsTotal float64) PaymentStatus {
	switch {
	case paymentsTotal >= total-shared.MoneyEpsilon:
		return PaymentStatusPaid
	case paymentsTotal > 0:
		return PaymentStatusPartial
	default:
		return PaymentStatusUnpaid
	}
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
}

// Sale is an org-scoped sales invoice. PaymentsTotal and PaymentStatus are
// mutated only by the payment recorder, never by the sale update path.
type Sale struct {
	ID            int64         `json:"id"`
	OrgID         int64         `json:"org_id"`
	Date          time.Time     `json:"date"`
	InvoiceNo     string        `json:"invoice_no"`
	CustomerID    *int64        `json:"customer_id,omitempty"`
	CustomerName  string        `json:"customer_name,omitempty"`
	Items         []SaleItem    `json:"items"`
	Total         float64       `json:"total"`
	PaymentsTotal float64       `json:"payments_total"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedBy     int64         `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// outboundDeltas converts sale items to stock decrements.
func outboundDeltas(items []SaleItem) []stock.Delta {
	deltas := make([]stock.Delta, len(items))
	for i, it := range items {
		deltas[i] = stock.Delta{ProductID: it.ProductID, Quantity: -it.Quantity}
	}
	return deltas
}

// inboundDeltas converts sale items to stock increments (reversals).
func inboundDeltas(items []SaleItem) []stock.Delta {
	return stock.Invert(outboundDeltas(items))
}
