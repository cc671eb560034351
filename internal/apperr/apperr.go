package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidPayload    = errors.New("invalid payload")
	ErrInvalidDuration   = errors.New("invalid duration format")
	ErrValidationFailed  = errors.New("validation failed")
	ErrProductNotFound   = errors.New("product not found")
	ErrOwnershipMismatch = errors.New("product does not belong to store")
	ErrStorage           = errors.New("storage failure")
)

// Kind returns the machine-checkable code for err. Wrapped errors
// keep their classification via errors.Is.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"

	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration_format"

	case errors.Is(err, ErrValidationFailed):
		return "validation_failed"

	case errors.Is(err, ErrProductNotFound):
		return "product_not_found"

	case errors.Is(err, ErrOwnershipMismatch):
		return "ownership_mismatch"

	case errors.Is(err, ErrStorage):
		return "storage_failure"

	default:
		return "internal"
	}
}

// HTTPStatus maps err to the response code. Only storage failures are
// retryable by the caller (webhook redelivery); everything else is a
// terminal rejection.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrInvalidPayload),
		errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrValidationFailed):
		return http.StatusBadRequest

	case errors.Is(err, ErrProductNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrOwnershipMismatch):
		return http.StatusForbidden

	default:
		return http.StatusInternalServerError
	}
}
