package relay

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError is a client error raised before any protocol call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrInvalidOperationType is returned for a type missing from the dispatch table.
var ErrInvalidOperationType = &ValidationError{Message: "Invalid operation type"}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// HTTPStatus maps an Execute error to the response status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
