package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the users/{uid} document seeded when an identity is created.
type UserProfile struct {
	UID                uuid.UUID  `json:"uid" gorm:"column:uid;type:uuid;primaryKey;not null"`
	Name               string     `json:"name" gorm:"type:text;not null"`
	Email              string     `json:"email" gorm:"type:text;not null"`
	PhotoURL           *string    `json:"photoURL,omitempty" gorm:"column:photo_url;type:text"`
	Bio                *string    `json:"bio,omitempty" gorm:"type:text"`
	EmailNotifications bool       `json:"emailNotifications" gorm:"not null;default:false"`
	ProjectCount       int        `json:"projectCount" gorm:"not null;default:0"`
	TotalViews         int        `json:"totalViews" gorm:"not null;default:0"`
	TotalLikes         int        `json:"totalLikes" gorm:"not null;default:0"`
	CreatedAt          time.Time  `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty" gorm:"type:timestamptz"`
}

func (UserProfile) TableName() string {
	return "users"
}

// Credential holds sign-in material for an identity.
type Credential struct {
	UID          uuid.UUID `json:"uid" gorm:"column:uid;type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Email        string    `json:"email" gorm:"type:text;not null;uniqueIndex"`
	DisplayName  string    `json:"displayName" gorm:"type:text"`
	PhotoURL     *string   `json:"photoURL,omitempty" gorm:"column:photo_url;type:text"`
	PasswordHash []byte    `json:"-" gorm:"type:bytea"`
	Provider     string    `json:"provider" gorm:"type:text;not null;default:'password'"`
	CreatedAt    time.Time `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}
