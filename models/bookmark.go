package models

import (
	"time"

	"github.com/google/uuid"
)

// Bookmark is a denormalized snapshot of a project saved by a user. SyncedAt records
// when the snapshot fields were last copied from the live project.
type Bookmark struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	UserID       uuid.UUID `json:"userId" gorm:"type:uuid;not null;index:idx_bookmark_user"`
	ProjectID    uuid.UUID `json:"projectId" gorm:"type:uuid;not null;index:idx_bookmark_project"`
	Title        string    `json:"title" gorm:"type:text;not null"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	ThumbnailURL *string   `json:"thumbnailUrl,omitempty" gorm:"type:text"`
	CreatorName  string    `json:"creatorName" gorm:"type:text"`
	CreatorID    uuid.UUID `json:"creatorId" gorm:"type:uuid"`
	CreatedAt    time.Time `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	SyncedAt     time.Time `json:"syncedAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}
