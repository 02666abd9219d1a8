package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const ProjectStatusActive = "Active"

// Project represents a portfolio project owned by its creator
type Project struct {
	ID                   uuid.UUID                   `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	OwnerID              uuid.UUID                   `json:"ownerId" gorm:"type:uuid;not null;index:idx_project_owner"`
	Title                string                      `json:"title" gorm:"type:text;not null"`
	Description          string                      `json:"description" gorm:"type:text;not null"`
	ThumbnailURL         *string                     `json:"thumbnailUrl,omitempty" gorm:"type:text"`
	ThumbnailStoragePath *string                     `json:"thumbnailStoragePath,omitempty" gorm:"type:text"`
	Tags                 datatypes.JSONSlice[string] `json:"tags" gorm:"type:jsonb;not null;default:'[]'"`
	Views                int                         `json:"views" gorm:"type:integer;not null;default:0;check:views >= 0"`
	Likes                Likes                       `json:"likes" gorm:"type:jsonb;not null;default:'[]';index:idx_project_likes,type:gin"`
	Status               string                      `json:"status" gorm:"type:text;not null;default:'Active'"`
	CreatedAt            time.Time                   `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP;index:idx_project_created"`
	UpdatedAt            time.Time                   `json:"updatedAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`

	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`

	// Derived for the calling identity; never persisted.
	LikeCount     int     `json:"likeCount" gorm:"-"`
	IsLiked       bool    `json:"isLiked" gorm:"-"`
	OwnerName     string  `json:"ownerName,omitempty" gorm:"-"`
	OwnerPhotoURL *string `json:"ownerPhotoUrl,omitempty" gorm:"-"`
}

// Decorate normalizes the likes set and fills the derived fields relative to viewer.
func (p *Project) Decorate(viewer string) {
	p.Likes = NormalizeLikes(p.Likes)
	p.LikeCount = len(p.Likes)
	p.IsLiked = viewer != "" && p.Likes.Contains(viewer)
	if p.Tags == nil {
		p.Tags = datatypes.JSONSlice[string]{}
	}
}
