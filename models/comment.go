package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment lives under its project and snapshots the commenter's name and photo.
type Comment struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	ProjectID    uuid.UUID `json:"projectId" gorm:"type:uuid;not null;index:idx_comment_project"`
	UserID       uuid.UUID `json:"userId" gorm:"type:uuid;not null"`
	UserName     string    `json:"userName" gorm:"type:text;not null"`
	UserEmail    string    `json:"userEmail,omitempty" gorm:"type:text"`
	UserPhotoURL *string   `json:"userPhotoUrl,omitempty" gorm:"type:text"`
	Text         string    `json:"text" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}
