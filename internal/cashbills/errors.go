package cashbills

import (
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var (
	// ErrBillNotFound indicates the cash bill does not exist in the org scope.
	ErrBillNotFound = fmt.Errorf("cash bill: %w", shared.ErrNotFound)

	// Validation errors.
	ErrEmptyPayments = fmt.Errorf("%w: payments must be a non-empty array", shared.ErrValidation)
	ErrInvalidAmount = fmt.Errorf("%w: payment amount must be > 0", shared.ErrValidation)
	ErrInvalidMode   = fmt.Errorf("%w: unsupported payment mode", shared.ErrValidation)
	ErrMissingSale   = fmt.Errorf("%w: sale_id is required", shared.ErrValidation)
)
