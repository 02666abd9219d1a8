package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// List returns every project, newest first
func (r *ProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	var projects []*models.Project
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, errs.NewDatabaseError("list", "projects", err)
	}
	return projects, nil
}

// ListByOwner returns the owner's projects, newest first. limit <= 0 means no limit.
func (r *ProjectRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Project, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var projects []*models.Project
	if err := q.Find(&projects).Error; err != nil {
		return nil, errs.NewDatabaseError("list", "projects", err)
	}
	return projects, nil
}

// ListTopByOwner returns the owner's most viewed projects
func (r *ProjectRepo) ListTopByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("views DESC").
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list top", "projects", err)
	}
	return projects, nil
}

// ListLikedBy returns projects whose likes array contains userID. Ordering is left to the caller.
func (r *ProjectRepo) ListLikedBy(ctx context.Context, userID string) ([]*models.Project, error) {
	needle, err := json.Marshal([]string{userID})
	if err != nil {
		return nil, errs.NewInternalErrorWithCause("encode likes filter", err)
	}
	var projects []*models.Project
	if err := r.db.WithContext(ctx).Where("likes @> ?::jsonb", string(needle)).Find(&projects).Error; err != nil {
		return nil, errs.NewDatabaseError("list liked", "projects", err)
	}
	return projects, nil
}

// FindByID returns a project by its ID
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}
	return &project, nil
}

// Add inserts a new project into the database
func (r *ProjectRepo) Add(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error; err != nil {
		return errs.NewDatabaseError("create", "project", err)
	}
	return nil
}

// Update writes the given columns and bumps updated_at
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return errs.NewDatabaseError("update", "project", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFoundError("project not found")
	}
	return nil
}

// UpdateLikes re-reads the likes set under a row lock, applies fn and writes the full set back.
func (r *ProjectRepo) UpdateLikes(ctx context.Context, id uuid.UUID, fn func(models.Likes) models.Likes) (models.Likes, error) {
	var updated models.Likes
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id", "likes").First(&project, "id = ?", id).Error; err != nil {
			return err
		}
		updated = models.NormalizeLikes(fn(models.NormalizeLikes(project.Likes)))
		return tx.Model(&models.Project{}).Where("id = ?", id).Updates(map[string]any{
			"likes":      updated,
			"updated_at": time.Now(),
		}).Error
	})
	if err != nil {
		return nil, errs.NewDatabaseError("update likes of", "project", err)
	}
	return updated, nil
}

// IncrementViews atomically adds one to the project's view counter
func (r *ProjectRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return errs.NewDatabaseError("increment views of", "project", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFoundError("project not found")
	}
	return nil
}

// Delete removes a project from the database by id; comments cascade
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id).Error; err != nil {
		return errs.NewDatabaseError("delete", "project", err)
	}
	return nil
}
