// Package shared holds cross-module primitives: the domain error taxonomy,
// request identity, audit logging and idempotency keys.
package shared

import "errors"

// MoneyEpsilon absorbs floating point rounding when comparing monetary totals.
const MoneyEpsilon = 0.0001

// Error taxonomy for the transactional core. Modules wrap these sentinels with
// their own context so callers can match on the kind via errors.Is.
var (
	// ErrNotFound indicates the target record does not exist in the org scope.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or missing input fields.
	ErrValidation = errors.New("validation failed")
	// ErrForeignReference indicates a referenced entity is not owned by the organisation.
	ErrForeignReference = errors.New("entity does not belong to this organisation")
	// ErrProfileNotConfigured indicates the organisation has not completed company profile setup.
	ErrProfileNotConfigured = errors.New("company profile not configured")
	// ErrOverpayment indicates a payment exceeding the remaining due amount.
	ErrOverpayment = errors.New("payment exceeds remaining due amount")
	// ErrSequenceRegression indicates an attempt to move a numbering sequence backward.
	ErrSequenceRegression = errors.New("sequence number cannot move backward")
	// ErrInvalidSequenceState indicates a corrupted numbering counter.
	ErrInvalidSequenceState = errors.New("invalid sequence state")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate entry")
)
