// Package purchases is the purchase transaction manager. Purchases mirror
// sales with inverted stock flow: creating a purchase increases product
// stock, deleting one removes that stock again. Bill numbers come from the
// supplier's paperwork and are stored as free text, never allocated.
package purchases

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/stock"
)

// PurchaseItem is one line of a purchase bill.
type PurchaseItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
}

// Purchase is an org-scoped supplier bill.
type Purchase struct {
	ID           int64          `json:"id"`
	OrgID        int64          `json:"org_id"`
	Date         time.Time      `json:"date"`
	BillNumber   string         `json:"bill_number,omitempty"`
	SupplierID   *int64         `json:"supplier_id,omitempty"`
	SupplierName string         `json:"supplier_name,omitempty"`
	Items        []PurchaseItem `json:"items"`
	SubTotal     float64        `json:"sub_total"`
	TaxAmount    float64        `json:"tax_amount"`
	Discount     float64        `json:"discount"`
	Total        float64        `json:"total"`
	Notes        string         `json:"notes,omitempty"`
	CreatedBy    int64          `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// inboundDeltas converts purchase items to stock increments.
func inboundDeltas(items []PurchaseItem) []stock.Delta {
	deltas := make([]stock.Delta, len(items))
	for i, it := range items {
		deltas[i] = stock.Delta{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return deltas
}

// outboundDeltas converts purchase items to stock decrements (reversals).
func outboundDeltas(items []PurchaseItem) []stock.Delta {
	return stock.Invert(inboundDeltas(items))
}
