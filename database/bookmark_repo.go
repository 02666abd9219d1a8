package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"gorm.io/gorm"
)

type BookmarkRepo struct {
	db *gorm.DB
}

func NewBookmarkRepo(db *gorm.DB) *BookmarkRepo {
	return &BookmarkRepo{db}
}

// ListByUser returns the user's bookmarks, newest first
func (r *BookmarkRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Bookmark, error) {
	var bookmarks []*models.Bookmark
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookmarks).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "bookmarks", err)
	}
	return bookmarks, nil
}

// Add inserts a bookmark snapshot
func (r *BookmarkRepo) Add(ctx context.Context, bookmark *models.Bookmark) error {
	if err := r.db.WithContext(ctx).Create(bookmark).Error; err != nil {
		return errs.NewDatabaseError("create", "bookmark", err)
	}
	return nil
}

// UpdateSnapshot rewrites the denormalized project fields of a bookmark
func (r *BookmarkRepo) UpdateSnapshot(ctx context.Context, bookmark *models.Bookmark) error {
	err := r.db.WithContext(ctx).Model(&models.Bookmark{}).Where("id = ?", bookmark.ID).Updates(map[string]any{
		"title":         bookmark.Title,
		"description":   bookmark.Description,
		"thumbnail_url": bookmark.ThumbnailURL,
		"creator_name":  bookmark.CreatorName,
		"synced_at":     bookmark.SyncedAt,
	}).Error
	if err != nil {
		return errs.NewDatabaseError("update", "bookmark", err)
	}
	return nil
}

// Delete removes a bookmark by its own id
func (r *BookmarkRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Bookmark{}, "id = ?", id).Error; err != nil {
		return errs.NewDatabaseError("delete", "bookmark", err)
	}
	return nil
}
