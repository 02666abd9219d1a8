package functions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ViewCounter interface {
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

// Deduper reports whether a key is seen for the first time within its window.
type Deduper interface {
	FirstSeen(ctx context.Context, key string) (bool, error)
}

type ViewRequest struct {
	ProjectID string `json:"projectId"`
	RequestID string `json:"requestId,omitempty"`
}

type ViewResponse struct {
	Success      bool `json:"success"`
	Deduplicated bool `json:"deduplicated,omitempty"`
}

// Views implements the recordProjectView callable.
type Views struct {
	counter ViewCounter
	dedupe  Deduper
	logger  zerolog.Logger
}

// NewViews builds the callable. dedupe may be nil, in which case every call counts.
func NewViews(counter ViewCounter, dedupe Deduper) *Views {
	return &Views{
		counter: counter,
		dedupe:  dedupe,
		logger:  log.With().Str("function", "recordProjectView").Logger(),
	}
}

// RecordProjectView increments a project's view counter by exactly one on behalf of an
// authenticated caller.
func (v *Views) RecordProjectView(ctx context.Context, caller *auth.Identity, req ViewRequest) (*ViewResponse, error) {
	if caller == nil {
		return nil, errs.NewUnauthenticatedError("must be logged in to record views")
	}
	if req.ProjectID == "" {
		return nil, errs.NewInvalidFieldError("projectId", "project ID is required")
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, errs.NewInvalidFieldError("projectId", "project ID is malformed")
	}

	if req.RequestID != "" && v.dedupe != nil {
		key := fmt.Sprintf("view:%s:%s:%s", caller.UID, projectID, req.RequestID)
		first, err := v.dedupe.FirstSeen(ctx, key)
		if err != nil {
			v.logger.Warn().Err(err).Str("projectId", req.ProjectID).Msg("view dedupe unavailable, counting view")
		} else if !first {
			return &ViewResponse{Success: true, Deduplicated: true}, nil
		}
	}

	if err := v.counter.IncrementViews(ctx, projectID); err != nil {
		v.logger.Error().Err(err).Str("projectId", req.ProjectID).Msg("error recording view")
		return nil, errs.NewInternalErrorWithCause("failed to record view", err)
	}

	metrics.RecordEngagement(metrics.EventView)
	return &ViewResponse{Success: true}, nil
}

type IdentitySource interface {
	Current() *auth.Identity
}

// Caller binds the callable to a session, the way a client SDK attaches its token.
type Caller struct {
	views    *Views
	identity IdentitySource
}

func (v *Views) Bind(identity IdentitySource) *Caller {
	return &Caller{views: v, identity: identity}
}

func (c *Caller) RecordProjectView(ctx context.Context, projectID string) error {
	_, err := c.views.RecordProjectView(ctx, c.identity.Current(), ViewRequest{ProjectID: projectID})
	return err
}
