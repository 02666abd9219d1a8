package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
)

// Notification is written by backend triggers; clients only flip Read/ReadAt.
type Notification struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	UserID    uuid.UUID         `json:"userId" gorm:"type:uuid;not null;index:idx_notification_feed,priority:1"`
	Type      string            `json:"type" gorm:"type:text;not null"`
	Payload   datatypes.JSONMap `json:"payload" gorm:"type:jsonb"`
	Read      bool              `json:"read" gorm:"not null;default:false"`
	CreatedAt time.Time         `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP;index:idx_notification_feed,priority:2,sort:desc"`
	ReadAt    *time.Time        `json:"readAt,omitempty" gorm:"type:timestamptz"`
}
