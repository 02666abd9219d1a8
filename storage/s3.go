package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// S3Store is the blob store adapter backed by an S3 bucket.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	logger        zerolog.Logger
}

type S3Options struct {
	Bucket        string
	Region        string
	PublicBaseURL string // defaults to the virtual-hosted bucket URL
	Endpoint      string // optional, for S3-compatible stores
}

func NewS3Store(cfg aws.Config, opts S3Options) *S3Store {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	base := opts.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	return &S3Store{
		client:        client,
		bucket:        opts.Bucket,
		publicBaseURL: strings.TrimSuffix(base, "/"),
		logger:        log.With().Str("component", "s3Store").Str("bucket", opts.Bucket).Logger(),
	}
}

// URL returns the durable public URL of an object path.
func (s *S3Store) URL(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicBaseURL + "/" + strings.Join(segments, "/")
}

// Upload stores data at path and returns its URL.
func (s *S3Store) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errs.NewStorageError("upload", path, err)
	}
	s.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("uploaded blob")
	return s.URL(path), nil
}

// Delete removes the object named by a path or by any URL this store handed out.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key := s.key(ref)
	if key == "" {
		return errs.NewInvalidInputError("empty blob reference")
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errs.NewStorageError("delete", key, err)
	}
	s.logger.Debug().Str("path", key).Msg("deleted blob")
	return nil
}

func (s *S3Store) key(ref string) string {
	if strings.HasPrefix(ref, s.publicBaseURL+"/") {
		rest := strings.TrimPrefix(ref, s.publicBaseURL+"/")
		if i := strings.IndexAny(rest, "?#"); i >= 0 {
			rest = rest[:i]
		}
		if decoded, err := url.PathUnescape(rest); err == nil {
			return decoded
		}
		return rest
	}
	// path-style URLs carry the bucket as the first segment
	return strings.TrimPrefix(ResolvePath(ref), s.bucket+"/")
}
