package database

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"gorm.io/gorm"
)

type CredentialRepo struct {
	db *gorm.DB
}

func NewCredentialRepo(db *gorm.DB) *CredentialRepo {
	return &CredentialRepo{db}
}

func (r *CredentialRepo) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var cred models.Credential
	if err := r.db.WithContext(ctx).First(&cred, "email = ?", strings.ToLower(email)).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "credential", err)
	}
	return &cred, nil
}

func (r *CredentialRepo) FindByID(ctx context.Context, uid uuid.UUID) (*models.Credential, error) {
	var cred models.Credential
	if err := r.db.WithContext(ctx).First(&cred, "uid = ?", uid).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "credential", err)
	}
	return &cred, nil
}

func (r *CredentialRepo) Add(ctx context.Context, cred *models.Credential) error {
	cred.Email = strings.ToLower(cred.Email)
	if err := r.db.WithContext(ctx).Create(cred).Error; err != nil {
		return errs.NewDatabaseError("create", "credential", err)
	}
	return nil
}

func (r *CredentialRepo) UpdatePassword(ctx context.Context, uid uuid.UUID, hash []byte) error {
	err := r.db.WithContext(ctx).Model(&models.Credential{}).Where("uid = ?", uid).Update("password_hash", hash).Error
	if err != nil {
		return errs.NewDatabaseError("update", "credential", err)
	}
	return nil
}
