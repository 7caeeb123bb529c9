package purchases

import (
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var (
	// ErrPurchaseNotFound indicates the purchase does not exist in the org scope.
	ErrPurchaseNotFound = fmt.Errorf("purchase: %w", shared.ErrNotFound)

	// Validation errors.
	ErrNoSupplier      = fmt.Errorf("%w: supplier_id is required", shared.ErrValidation)
	ErrEmptyItems      = fmt.Errorf("%w: items must be a non-empty array", shared.ErrValidation)
	ErrInvalidProduct  = fmt.Errorf("%w: item product_id is required", shared.ErrValidation)
	ErrInvalidQuantity = fmt.Errorf("%w: item quantity must be > 0", shared.ErrValidation)
	ErrInvalidPrice    = fmt.Errorf("%w: item price must be >= 0", shared.ErrValidation)
	ErrInvalidAmount   = fmt.Errorf("%w: amounts must be non-negative numbers", shared.ErrValidation)

	// Referential-integrity errors.
	ErrForeignProduct  = fmt.Errorf("one or more products: %w", shared.ErrForeignReference)
	ErrForeignSupplier = fmt.Errorf("supplier: %w", shared.ErrForeignReference)
)
