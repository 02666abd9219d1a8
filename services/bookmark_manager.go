package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/metrics"
	"github.com/rpupo63/projecthub-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ProjectReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

// BookmarkManager caches one user's bookmarks, newest first.
type BookmarkManager struct {
	store    BookmarkStore
	projects ProjectReader
	profiles ProfileStore
	identity IdentitySource
	logger   zerolog.Logger
	now      func() time.Time

	mu     sync.RWMutex
	items  []*models.Bookmark
	loaded bool
}

func NewBookmarkManager(store BookmarkStore, projects ProjectReader, profiles ProfileStore, identity IdentitySource) *BookmarkManager {
	return &BookmarkManager{
		store:    store,
		projects: projects,
		profiles: profiles,
		identity: identity,
		logger:   log.With().Str("component", "bookmarkManager").Logger(),
		now:      time.Now,
	}
}

// List loads the caller's bookmarks and replaces the cache. Signed out yields an empty list.
func (b *BookmarkManager) List(ctx context.Context) ([]models.Bookmark, error) {
	identity := b.identity.Current()
	if identity == nil {
		return []models.Bookmark{}, nil
	}
	items, err := b.store.ListByUser(ctx, identity.UID)
	if err != nil {
		b.logger.Error().Err(err).Msg("error fetching bookmarks")
		return nil, err
	}

	b.mu.Lock()
	b.items = cloneBookmarks(items)
	b.loaded = true
	out := b.copyLocked()
	b.mu.Unlock()
	return out, nil
}

// Bookmarks returns the cached list.
func (b *BookmarkManager) Bookmarks() []models.Bookmark {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.copyLocked()
}

func (b *BookmarkManager) IsBookmarked(projectID uuid.UUID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, bm := range b.items {
		if bm.ProjectID == projectID {
			return true
		}
	}
	return false
}

// Add saves a snapshot of project and prepends it to the cache.
func (b *BookmarkManager) Add(ctx context.Context, project *models.Project) (*models.Bookmark, error) {
	identity := b.identity.Current()
	if identity == nil {
		return nil, errs.NewUnauthenticatedError("must be signed in to bookmark")
	}
	if project == nil || project.ID == uuid.Nil {
		return nil, errs.NewInvalidFieldError("projectId", "project is required")
	}

	now := b.now()
	bm := &models.Bookmark{
		ID:        uuid.New(),
		UserID:    identity.UID,
		ProjectID: project.ID,
		CreatedAt: now,
	}
	b.applySnapshot(ctx, bm, project, now)

	if err := b.store.Add(ctx, bm); err != nil {
		b.logger.Error().Err(err).Str("projectId", project.ID.String()).Msg("error adding bookmark")
		return nil, err
	}
	metrics.RecordEngagement(metrics.EventBookmark)

	b.mu.Lock()
	cp := *bm
	b.items = append([]*models.Bookmark{&cp}, b.items...)
	b.mu.Unlock()
	return bm, nil
}

// Remove deletes one of the caller's bookmarks by bookmark id.
func (b *BookmarkManager) Remove(ctx context.Context, bookmarkID uuid.UUID) error {
	if b.identity.Current() == nil {
		return errs.NewUnauthenticatedError("must be signed in to remove bookmarks")
	}
	if !b.owns(bookmarkID) {
		if _, err := b.List(ctx); err != nil {
			return err
		}
		if !b.owns(bookmarkID) {
			return errs.NewNotFoundError("bookmark not found")
		}
	}

	if err := b.store.Delete(ctx, bookmarkID); err != nil {
		b.logger.Error().Err(err).Str("bookmarkId", bookmarkID.String()).Msg("error removing bookmark")
		return err
	}
	b.drop(bookmarkID)
	return nil
}

// Resync refreshes every cached snapshot from its live project. Bookmarks whose project
// no longer exists are deleted best-effort. It returns the number refreshed.
func (b *BookmarkManager) Resync(ctx context.Context) (int, error) {
	if b.identity.Current() == nil {
		return 0, errs.NewUnauthenticatedError("must be signed in to resync bookmarks")
	}
	b.mu.RLock()
	loaded := b.loaded
	b.mu.RUnlock()
	if !loaded {
		if _, err := b.List(ctx); err != nil {
			return 0, err
		}
	}

	refreshed := 0
	for _, bm := range b.Bookmarks() {
		project, err := b.projects.FindByID(ctx, bm.ProjectID)
		if err != nil {
			if errs.IsNotFound(err) {
				if derr := b.store.Delete(ctx, bm.ID); derr != nil {
					b.logger.Warn().Err(derr).Str("bookmarkId", bm.ID.String()).Msg("failed to delete stale bookmark")
					continue
				}
				b.drop(bm.ID)
				continue
			}
			b.logger.Warn().Err(err).Str("projectId", bm.ProjectID.String()).Msg("project lookup failed during resync")
			continue
		}

		updated := bm
		b.applySnapshot(ctx, &updated, project, b.now())
		if err := b.store.UpdateSnapshot(ctx, &updated); err != nil {
			b.logger.Warn().Err(err).Str("bookmarkId", bm.ID.String()).Msg("failed to refresh bookmark")
			continue
		}
		b.replace(&updated)
		refreshed++
	}
	return refreshed, nil
}

func (b *BookmarkManager) applySnapshot(ctx context.Context, bm *models.Bookmark, project *models.Project, at time.Time) {
	bm.Title = project.Title
	bm.Description = project.Description
	bm.ThumbnailURL = project.ThumbnailURL
	bm.CreatorID = project.OwnerID
	bm.CreatorName = project.OwnerName
	bm.SyncedAt = at
	if bm.CreatorName == "" && b.profiles != nil {
		if owner, err := b.profiles.FindByID(ctx, project.OwnerID); err == nil {
			bm.CreatorName = owner.Name
		}
	}
}

func (b *BookmarkManager) owns(id uuid.UUID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, bm := range b.items {
		if bm.ID == id {
			return true
		}
	}
	return false
}

func (b *BookmarkManager) drop(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.items[:0]
	for _, bm := range b.items {
		if bm.ID != id {
			kept = append(kept, bm)
		}
	}
	b.items = kept
}

func (b *BookmarkManager) replace(updated *models.Bookmark) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, bm := range b.items {
		if bm.ID == updated.ID {
			cp := *updated
			b.items[i] = &cp
		}
	}
}

func (b *BookmarkManager) copyLocked() []models.Bookmark {
	out := make([]models.Bookmark, 0, len(b.items))
	for _, bm := range b.items {
		out = append(out, *bm)
	}
	return out
}

func cloneBookmarks(in []*models.Bookmark) []*models.Bookmark {
	out := make([]*models.Bookmark, 0, len(in))
	for _, bm := range in {
		cp := *bm
		out = append(out, &cp)
	}
	return out
}
