package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"github.com/rpupo63/projecthub-backend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ProfileManager resolves and edits the profile document of the session identity.
type ProfileManager struct {
	profiles ProfileStore
	blobs    BlobStore
	identity IdentitySource
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	profile *models.UserProfile
}

func NewProfileManager(profiles ProfileStore, blobs BlobStore, identity IdentitySource) *ProfileManager {
	return &ProfileManager{
		profiles: profiles,
		blobs:    blobs,
		identity: identity,
		logger:   log.With().Str("component", "profileManager").Logger(),
		now:      time.Now,
	}
}

// Attach follows session changes: a new identity re-resolves the profile, a cleared
// identity drops it.
func (p *ProfileManager) Attach(session *auth.Session) func() {
	return session.OnChange(func(identity *auth.Identity) {
		if identity == nil {
			p.mu.Lock()
			p.profile = nil
			p.mu.Unlock()
			return
		}
		if _, err := p.Resolve(context.Background()); err != nil {
			p.logger.Warn().Err(err).Str("uid", identity.UID.String()).Msg("profile resolve failed")
		}
	})
}

// Resolve reads the caller's profile document into the cache.
func (p *ProfileManager) Resolve(ctx context.Context) (*models.UserProfile, error) {
	identity := p.identity.Current()
	if identity == nil {
		return nil, errs.NewUnauthenticatedError("must be signed in")
	}
	profile, err := p.profiles.FindByID(ctx, identity.UID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	cp := *profile
	p.profile = &cp
	p.mu.Unlock()
	return profile, nil
}

func (p *ProfileManager) Profile() *models.UserProfile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.profile == nil {
		return nil
	}
	cp := *p.profile
	return &cp
}

type ProfileUpdate struct {
	Name  *string
	Bio   *string
	Photo *Upload
}

// UpdateProfile writes name, bio and an optional new photo. The old photo is removed
// best-effort before the upload, since both share the same path.
func (p *ProfileManager) UpdateProfile(ctx context.Context, in ProfileUpdate) (*models.UserProfile, error) {
	identity := p.identity.Current()
	if identity == nil {
		return nil, errs.NewUnauthenticatedError("must be signed in")
	}

	fields := map[string]any{"updated_at": p.now()}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, errs.NewInvalidFieldError("name", "name is required")
		}
		fields["name"] = name
	}
	if in.Bio != nil {
		fields["bio"] = strings.TrimSpace(*in.Bio)
	}

	if in.Photo != nil {
		contentType, err := storage.ValidateImage(in.Photo.Data)
		if err != nil {
			return nil, err
		}
		current := p.Profile()
		if current == nil {
			current, _ = p.Resolve(ctx)
		}
		if current != nil && current.PhotoURL != nil && *current.PhotoURL != "" {
			if derr := p.blobs.Delete(ctx, storage.ResolvePath(*current.PhotoURL)); derr != nil {
				p.logger.Warn().Err(derr).Msg("failed to delete old profile photo")
			}
		}
		path := storage.ProfilePhotoPath(identity.UID.String(), in.Photo.Filename)
		url, err := p.blobs.Upload(ctx, path, in.Photo.Data, contentType)
		if err != nil {
			p.logger.Error().Err(err).Str("path", path).Msg("error uploading profile photo")
			return nil, err
		}
		fields["photo_url"] = url
	}

	if err := p.profiles.Update(ctx, identity.UID, fields); err != nil {
		p.logger.Error().Err(err).Str("uid", identity.UID.String()).Msg("error updating profile")
		return nil, err
	}
	return p.Resolve(ctx)
}

func (p *ProfileManager) UpdateEmailNotifications(ctx context.Context, enabled bool) error {
	identity := p.identity.Current()
	if identity == nil {
		return errs.NewUnauthenticatedError("must be signed in")
	}
	if err := p.profiles.Update(ctx, identity.UID, map[string]any{"email_notifications": enabled}); err != nil {
		p.logger.Error().Err(err).Str("uid", identity.UID.String()).Msg("error updating email notification preference")
		return err
	}

	p.mu.Lock()
	if p.profile != nil {
		p.profile.EmailNotifications = enabled
	}
	p.mu.Unlock()
	return nil
}
