package sales

import (
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Domain errors for sales. Each wraps a taxonomy sentinel from shared so the
// HTTP layer can map on the kind.
var (
	// ErrSaleNotFound indicates the sale does not exist in the org scope.
	ErrSaleNotFound = fmt.Errorf("sale: %w", shared.ErrNotFound)

	// Validation errors.
	ErrNoCustomer      = fmt.Errorf("%w: customer_id or customer_name is required", shared.ErrValidation)
	ErrEmptyItems      = fmt.Errorf("%w: items must be a non-empty array", shared.ErrValidation)
	ErrInvalidProduct  = fmt.Errorf("%w: item product_id is required", shared.ErrValidation)
	ErrInvalidQuantity = fmt.Errorf("%w: item quantity must be > 0", shared.ErrValidation)
	ErrInvalidPrice    = fmt.Errorf("%w: item price must be >= 0", shared.ErrValidation)
	ErrInvalidTotal    = fmt.Errorf("%w: total must be a non-negative number", shared.ErrValidation)

	// Referential-integrity errors.
	ErrForeignProduct  = fmt.Errorf("one or more products: %w", shared.ErrForeignReference)
	ErrForeignCustomer = fmt.Errorf("customer: %w", shared.ErrForeignReference)
)
