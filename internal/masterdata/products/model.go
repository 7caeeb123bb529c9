package products

import "time"

// Product is an org-scoped catalogue item. Stock is mutated only through the
// stock ledger; the CRUD paths here never write it after creation.
type Product struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku,omitempty"`
	Category  string    `json:"category,omitempty"`
	Price     float64   `json:"price"`
	Stock     int64     `json:"stock"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilters narrows product listings.
type ListFilters struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}
