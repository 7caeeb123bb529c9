package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrForeignReference):
		Problem(w, http.StatusBadRequest, "Foreign Reference", err.Error())
	case errors.Is(err, shared.ErrProfileNotConfigured):
		Problem(w, http.StatusBadRequest, "Profile Not Configured", err.Error())
	case errors.Is(err, shared.ErrOverpayment):
		Problem(w, http.StatusBadRequest, "Overpayment Rejected", err.Error())
	case errors.Is(err, shared.ErrSequenceRegression):
		Problem(w, http.StatusBadRequest, "Sequence Regression", err.Error())
	case errors.Is(err, shared.ErrInvalidSequenceState):
		Problem(w, http.StatusConflict, "Invalid Sequence State", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	case errors.Is(err, db.ErrSerialization):
		Problem(w, http.StatusConflict, "Storage Conflict", "operation could not be serialized, retry the request")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
