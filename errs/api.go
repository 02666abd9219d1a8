package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy shared by every manager, adapter and handler.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInternal         = errors.New("internal error")
	ErrConflict         = errors.New("resource conflict")
	ErrCORSBlocked      = errors.New("request blocked by CORS policy")
)

type ApiErr struct {
	StatusCode int
	err        error
	Details    string // Additional details about the error
	Field      string // Field that caused the error (for validation errors)
	Cause      error  // The underlying cause of the error
}

func NewApiErr(statusCode int, message string) *ApiErr {
	return &ApiErr{
		StatusCode: statusCode,
		err:        errors.New(message),
	}
}

// implements error interface. this allows us to pass an instance of ApiErr as an argument of type `error`
func (e *ApiErr) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.err.Error(), e.Details)
	}
	return e.err.Error()
}

// GetFullError returns a recursive error message including all causes
func (e *ApiErr) GetFullError() string {
	msg := e.Error()
	if e.Cause != nil {
		var apiErr *ApiErr
		if errors.As(e.Cause, &apiErr) {
			msg = fmt.Sprintf("%s -> %s", msg, apiErr.GetFullError())
		} else {
			msg = fmt.Sprintf("%s -> %s", msg, e.Cause.Error())
		}
	}
	return msg
}

// Unwrap exposes the taxonomy sentinel, so errors.Is(err, ErrNotFound) holds for
// any ApiErr built by the constructors below.
func (e *ApiErr) Unwrap() error {
	return e.err
}

func kindErr(sentinel error, message string) error {
	if message == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}

func NewUnauthenticatedError(message string) *ApiErr {
	return &ApiErr{StatusCode: http.StatusUnauthorized, err: kindErr(ErrUnauthenticated, message)}
}

func NewInvalidInputError(message string) *ApiErr {
	return &ApiErr{StatusCode: http.StatusBadRequest, err: kindErr(ErrInvalidInput, message)}
}

func NewInvalidFieldError(field, message string) *ApiErr {
	return &ApiErr{StatusCode: http.StatusBadRequest, err: kindErr(ErrInvalidInput, message), Field: field}
}

func NewNotFoundError(message string) *ApiErr {
	return &ApiErr{StatusCode: http.StatusNotFound, err: kindErr(ErrNotFound, message)}
}

func NewPermissionDeniedError(message string) *ApiErr {
	return &ApiErr{StatusCode: http.StatusForbidden, err: kindErr(ErrPermissionDenied, message)}
}

func NewInternalError(message string) *ApiErr {
	return &ApiErr{StatusCode: http.StatusInternalServerError, err: kindErr(ErrInternal, message)}
}

func NewInternalErrorWithCause(message string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        kindErr(ErrInternal, message),
		Cause:      cause,
	}
}

func NewConflictError(message string) *ApiErr {
	return &ApiErr{StatusCode: http.StatusConflict, err: kindErr(ErrConflict, message)}
}

func NewCORSError(origin string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusForbidden,
		err:        ErrCORSBlocked,
		Details:    fmt.Sprintf("Origin '%s' is not allowed by CORS policy", origin),
	}
}

func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// Code returns the wire code used by callable functions for err.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsUnauthenticated(err):
		return "unauthenticated"
	case IsInvalidInput(err):
		return "invalid-argument"
	case IsNotFound(err):
		return "not-found"
	case IsPermissionDenied(err):
		return "permission-denied"
	default:
		return "internal"
	}
}
