package errors

import (
	stderrors "errors"
	"net/http"
)

// CodeOf extracts the error code from an error chain, or CodeUnknown.
func CodeOf(err error) Code {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// HTTPStatus maps an error chain to the HTTP status code reported to clients.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNotAParticipant:
		return http.StatusForbidden
	case CodeSessionEnded, CodeNotActive, CodeSeatTaken, CodeOutOfTurn, CodeStalePosition:
		return http.StatusConflict
	case CodeIllegalMove:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
