package purchases

import "time"

type PurchaseItemRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int64   `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
}

// CreatePurchaseRequest records a stock inbound. SupplierID is mandatory;
// SupplierName is only a display label stored alongside it.
type CreatePurchaseRequest struct {
	SupplierID   *int64                `json:"supplier_id" validate:"required,gt=0"`
	SupplierName string                `json:"supplier_name,omitempty"`
	BillNumber   string                `json:"bill_number,omitempty"`
	Date         *time.Time            `json:"date,omitempty"`
	Items        []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
	SubTotal     float64               `json:"sub_total" validate:"gte=0"`
	TaxAmount    float64               `json:"tax_amount" validate:"gte=0"`
	Discount     float64               `json:"discount" validate:"gte=0"`
	Total        float64               `json:"total" validate:"gte=0"`
	Notes        string                `json:"notes,omitempty"`
}

// UpdatePurchaseRequest carries partial updates. Providing Items replaces
// the whole item list.
type UpdatePurchaseRequest struct {
	SupplierID   *int64                 `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
	SupplierName *string                `json:"supplier_name,omitempty"`
	BillNumber   *string                `json:"bill_number,omitempty"`
	Date         *time.Time             `json:"date,omitempty"`
	Items        *[]PurchaseItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
	SubTotal     *float64               `json:"sub_total,omitempty" validate:"omitempty,gte=0"`
	TaxAmount    *float64               `json:"tax_amount,omitempty" validate:"omitempty,gte=0"`
	Discount     *float64               `json:"discount,omitempty" validate:"omitempty,gte=0"`
	Total        *float64               `json:"total,omitempty" validate:"omitempty,gte=0"`
	Notes        *string                `json:"notes,omitempty"`
}

type ListFilter struct {
	Search string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
