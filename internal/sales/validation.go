package sales

import (
	"fmt"
	"math"
	"strings"
)

// ValidateCreateRequest checks the shape rules for creating a sale.
func ValidateCreateRequest(req CreateSaleRequest) error {
	if req.CustomerID == nil && strings.TrimSpace(req.CustomerName) == "" {
		return ErrNoCustomer
	}
	if req.Total < 0 || math.IsNaN(req.Total) {
		return ErrInvalidTotal
	}
	return validateItems(req.Items)
}

func validateItems(items []SaleItemRequest) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	for i, it := range items {
		if it.ProductID <= 0 {
			return fmt.Errorf("items[%d]: %w", i, ErrInvalidProduct)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if it.Price < 0 || math.IsNaN(it.Price) {
			return fmt.Errorf("items[%d]: %w", i, ErrInvalidPrice)
		}
	}
	return nil
}
