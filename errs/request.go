package errs

import (
	"fmt"
	"net/http"
)

// Request & Input-Validation Error Constructors
func NewMalformedPayloadError(payloadType string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        fmt.Errorf("%w: malformed %s payload", ErrInvalidInput, payloadType),
		Cause:      cause,
	}
}

func NewMissingRequiredFieldError(fieldName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        fmt.Errorf("%w: missing required field", ErrInvalidInput),
		Details:    fmt.Sprintf("Field '%s' is required", fieldName),
		Field:      fieldName,
	}
}

func NewMaxBodySizeExceededError(maxSize int64) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusRequestEntityTooLarge,
		err:        fmt.Errorf("%w: max body size exceeded", ErrInvalidInput),
		Details:    fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxSize),
	}
}
