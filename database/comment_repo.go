package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"gorm.io/gorm"
)

type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db}
}

// List returns a project's comments, newest first
func (r *CommentRepo) List(ctx context.Context, projectID uuid.UUID) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "comments", err)
	}
	return comments, nil
}

// CountByProjects returns the total number of comments across the given projects
func (r *CommentRepo) CountByProjects(ctx context.Context, projectIDs []uuid.UUID) (int, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("project_id IN ?", projectIDs).Count(&n).Error; err != nil {
		return 0, errs.NewDatabaseError("count", "comments", err)
	}
	return int(n), nil
}

// Add inserts a comment under its project
func (r *CommentRepo) Add(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return errs.NewDatabaseError("create", "comment", err)
	}
	return nil
}

// Delete removes a comment from a project
func (r *CommentRepo) Delete(ctx context.Context, projectID, commentID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, commentID).
		Delete(&models.Comment{}).Error
	if err != nil {
		return errs.NewDatabaseError("delete", "comment", err)
	}
	return nil
}
