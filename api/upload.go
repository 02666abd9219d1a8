package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/services"
	"github.com/rpupo63/projecthub-backend/storage"
)

// multipart bodies carry at most one image plus small text fields
const maxMultipartBody = storage.MaxImageSize + 1<<20

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewMaxBodySizeExceededError(tooLarge.Limit)
		}
		return errs.NewMalformedPayloadError("multipart", err)
	}
	return nil
}

// formValue returns nil when the field is absent, so updates can tell unset from empty.
func formValue(r *http.Request, field string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

// formUpload reads an optional file part. Oversized files are rejected by image validation.
func formUpload(r *http.Request, field string) (*services.Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewMalformedPayloadError("multipart", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageSize+1))
	if err != nil {
		return nil, errs.NewMalformedPayloadError("multipart", err)
	}
	return &services.Upload{Filename: header.Filename, Data: data}, nil
}
