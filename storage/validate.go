package storage

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rpupo63/projecthub-backend/errs"
)

const MaxImageSize = 2 * 1024 * 1024

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif"}

// ValidateImage checks size and sniffed content type, returning the content type.
func ValidateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errs.NewInvalidFieldError("thumbnail", "image file is empty")
	}
	if len(data) > MaxImageSize {
		return "", errs.NewInvalidFieldError("thumbnail", fmt.Sprintf("image file must be less than %d MB", MaxImageSize/(1024*1024)))
	}

	mt := mimetype.Detect(data)
	for _, allowed := range allowedImageTypes {
		if mt.Is(allowed) {
			return allowed, nil
		}
	}
	return "", errs.NewInvalidFieldError("thumbnail", "only JPG, PNG and GIF images are allowed")
}
