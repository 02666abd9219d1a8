package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rpupo63/projecthub-backend/models"
)

// The managers depend on these adapters only; database, storage and functions
// provide the production implementations.

type ProjectStore interface {
	List(ctx context.Context) ([]*models.Project, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Project, error)
	ListTopByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Project, error)
	ListLikedBy(ctx context.Context, userID string) ([]*models.Project, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Add(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	// UpdateLikes applies fn to the current likes set atomically and returns the stored result.
	UpdateLikes(ctx context.Context, id uuid.UUID, fn func(models.Likes) models.Likes) (models.Likes, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CommentStore interface {
	List(ctx context.Context, projectID uuid.UUID) ([]*models.Comment, error)
	CountByProjects(ctx context.Context, projectIDs []uuid.UUID) (int, error)
	Add(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, projectID, commentID uuid.UUID) error
}

type ProfileStore interface {
	FindByID(ctx context.Context, uid uuid.UUID) (*models.UserProfile, error)
	FindByIDs(ctx context.Context, uids []uuid.UUID) (map[uuid.UUID]*models.UserProfile, error)
	Update(ctx context.Context, uid uuid.UUID, fields map[string]any) error
}

type BookmarkStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Bookmark, error)
	Add(ctx context.Context, bookmark *models.Bookmark) error
	UpdateSnapshot(ctx context.Context, bookmark *models.Bookmark) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type NotificationStore interface {
	// Subscribe must deliver the first page before returning.
	Subscribe(ctx context.Context, userID uuid.UUID, pageSize int, onPage func([]*models.Notification), onErr func(error)) (func(), error)
	PageAfter(ctx context.Context, userID uuid.UUID, cursor *models.Notification, pageSize int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error
}

type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}

type ViewRecorder interface {
	RecordProjectView(ctx context.Context, projectID string) error
}

type IdentitySource interface {
	Current() *auth.Identity
}

// EngagementNotifier receives successful likes and comments.
type EngagementNotifier interface {
	ProjectLiked(ctx context.Context, project *models.Project, actor *auth.Identity)
	CommentAdded(ctx context.Context, project *models.Project, comment *models.Comment)
}

// Upload is an image handed to a manager for storage.
type Upload struct {
	Filename string
	Data     []byte
}
