package apperr

import "net/http"

// HTTPStatus maps a Kind to the TAXII 2.1 HTTP status it produces
// (spec.md §4.8, §7).
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidInput, ConstraintViolation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Unsupported:
		return http.StatusUnsupportedMediaType
	case TooLarge:
		return http.StatusRequestEntityTooLarge
	case Transient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// TaxiiStatusType maps a Kind to the TAXII 1.x Status_Message status_type
// value (spec.md §4.9, §7). Errors in the 1.x surface are carried inside a
// 200 OK Status_Message, not an HTTP error status.
func TaxiiStatusType(kind Kind) string {
	switch kind {
	case InvalidInput, ConstraintViolation:
		return "FAILURE"
	case Unauthorized:
		return "UNAUTHORIZED"
	case Forbidden:
		return "UNAUTHORIZED"
	case NotFound:
		return "NOT_FOUND"
	case Conflict:
		return "DESTINATION_COLLECTION_ERROR"
	case Unsupported:
		return "UNSUPPORTED_MESSAGE_BINDING"
	case TooLarge:
		return "DENIED"
	case Transient:
		return "RETRY"
	default:
		return "FAILURE"
	}
}
