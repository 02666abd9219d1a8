package errs

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/smithy-go"
)

var ErrBlobStorage = errors.New("blob storage failed")

// NewStorageError classifies a blob store failure by its API error code.
func NewStorageError(operation, path string, cause error) *ApiErr {
	details := fmt.Sprintf("Failed to %s %s", operation, path)

	var apiErr smithy.APIError
	if errors.As(cause, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden", "AllAccessDisabled":
			return &ApiErr{
				StatusCode: http.StatusForbidden,
				err:        fmt.Errorf("%w: unable to %s blob", ErrPermissionDenied, operation),
				Details:    details,
				Cause:      cause,
			}
		case "NoSuchKey", "NotFound":
			return &ApiErr{
				StatusCode: http.StatusNotFound,
				err:        fmt.Errorf("blob %w", ErrNotFound),
				Details:    details,
				Cause:      cause,
			}
		}
	}

	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        fmt.Errorf("%w: %w", ErrInternal, ErrBlobStorage),
		Details:    details,
		Cause:      cause,
	}
}
