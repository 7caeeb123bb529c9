package sales

import "time"

type SaleItemRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int64   `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
}

type CreateSaleRequest struct {
	CustomerID   *int64            `json:"customer_id,omitempty"`
	CustomerName string            `json:"customer_name,omitempty"`
	Date         *time.Time        `json:"date,omitempty"`
	Items        []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	Total        float64           `json:"total" validate:"gte=0"`
}

// UpdateSaleRequest carries partial updates. Absent fields keep their stored
// values; providing Items replaces the whole item list.
type UpdateSaleRequest struct {
	CustomerID   *int64             `json:"customer_id,omitempty"`
	CustomerName *string            `json:"customer_name,omitempty"`
	Date         *time.Time         `json:"date,omitempty"`
	Items        *[]SaleItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
	Total        *float64           `json:"total,omitempty" validate:"omitempty,gte=0"`
}

type ListFilter struct {
	Search string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
