package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db}
}

// FindByID returns the users/{uid} profile
func (r *UserRepo) FindByID(ctx context.Context, uid uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).First(&profile, "uid = ?", uid).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "user", err)
	}
	return &profile, nil
}

// FindByIDs returns the profiles that exist among uids, keyed by uid
func (r *UserRepo) FindByIDs(ctx context.Context, uids []uuid.UUID) (map[uuid.UUID]*models.UserProfile, error) {
	out := make(map[uuid.UUID]*models.UserProfile, len(uids))
	if len(uids) == 0 {
		return out, nil
	}
	var profiles []*models.UserProfile
	if err := r.db.WithContext(ctx).Where("uid IN ?", uids).Find(&profiles).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "users", err)
	}
	for _, p := range profiles {
		out[p.UID] = p
	}
	return out, nil
}

// Seed inserts the profile unless one already exists for the uid
func (r *UserRepo) Seed(ctx context.Context, profile *models.UserProfile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(profile).Error
	if err != nil {
		return errs.NewDatabaseError("seed", "user", err)
	}
	return nil
}

// Update writes the given profile columns
func (r *UserRepo) Update(ctx context.Context, uid uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.UserProfile{}).Where("uid = ?", uid).Updates(fields)
	if res.Error != nil {
		return errs.NewDatabaseError("update", "user", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFoundError("user not found")
	}
	return nil
}
