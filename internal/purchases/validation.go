package purchases

import (
	"fmt"
	"math"
)

// ValidateCreateRequest checks the shape rules for creating a purchase.
func ValidateCreateRequest(req CreatePurchaseRequest) error {
	if req.SupplierID == nil {
		return ErrNoSupplier
	}
	for _, v := range []float64{req.SubTotal, req.TaxAmount, req.Discount, req.Total} {
		if v < 0 || math.IsNaN(v) {
			return ErrInvalidAmount
		}
	}
	return validateItems(req.Items)
}

func validateItems(items []PurchaseItemRequest) error {
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
