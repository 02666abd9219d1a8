package functions

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rpupo63/projecthub-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

type NotificationWriter interface {
	Add(ctx context.Context, n *models.Notification) error
}

type ProfileReader interface {
	FindByID(ctx context.Context, uid uuid.UUID) (*models.UserProfile, error)
}

type Mailer interface {
	Send(ctx context.Context, subject, body string, recipients []string) error
}

// Engagement writes owner notifications for likes and comments by other users and
// emails owners who opted in. Every step is best-effort.
type Engagement struct {
	notifications NotificationWriter
	profiles      ProfileReader
	mailer        Mailer
	logger        zerolog.Logger
	now           func() time.Time
}

// NewEngagement builds the trigger set. mailer may be nil.
func NewEngagement(notifications NotificationWriter, profiles ProfileReader, mailer Mailer) *Engagement {
	return &Engagement{
		notifications: notifications,
		profiles:      profiles,
		mailer:        mailer,
		logger:        log.With().Str("function", "engagement").Logger(),
		now:           time.Now,
	}
}

func (e *Engagement) ProjectLiked(ctx context.Context, project *models.Project, actor *auth.Identity) {
	if actor == nil || actor.UID == project.OwnerID {
		return
	}
	name := actorName(actor.DisplayName, actor)
	e.notify(ctx, project, models.NotificationTypeLike, actor.UID, name, datatypes.JSONMap{},
		fmt.Sprintf("%s liked your project", name),
		fmt.Sprintf("<p><strong>%s</strong> liked <em>%s</em>.</p>", html.EscapeString(name), html.EscapeString(project.Title)))
}

func (e *Engagement) CommentAdded(ctx context.Context, project *models.Project, comment *models.Comment) {
	if comment.UserID == project.OwnerID {
		return
	}
	e.notify(ctx, project, models.NotificationTypeComment, comment.UserID, comment.UserName,
		datatypes.JSONMap{"commentId": comment.ID.String(), "text": comment.Text},
		fmt.Sprintf("%s commented on your project", comment.UserName),
		fmt.Sprintf("<p><strong>%s</strong> commented on <em>%s</em>:</p><blockquote>%s</blockquote>",
			html.EscapeString(comment.UserName), html.EscapeString(project.Title), html.EscapeString(comment.Text)))
}

func (e *Engagement) notify(ctx context.Context, project *models.Project, kind string, actorID uuid.UUID, actorName string, extra datatypes.JSONMap, subject, body string) {
	payload := datatypes.JSONMap{
		"projectId":    project.ID.String(),
		"projectTitle": project.Title,
		"actorId":      actorID.String(),
		"actorName":    actorName,
	}
	for k, v := range extra {
		payload[k] = v
	}

	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    project.OwnerID,
		Type:      kind,
		Payload:   payload,
		CreatedAt: e.now(),
	}
	if err := e.notifications.Add(ctx, n); err != nil {
		e.logger.Error().Err(err).Str("projectId", project.ID.String()).Str("type", kind).Msg("error creating notification")
		return
	}

	if e.mailer == nil || e.profiles == nil {
		return
	}
	owner, err := e.profiles.FindByID(ctx, project.OwnerID)
	if err != nil {
		e.logger.Warn().Err(err).Str("ownerId", project.OwnerID.String()).Msg("owner profile unavailable, skipping email")
		return
	}
	if !owner.EmailNotifications || owner.Email == "" {
		return
	}
	if err := e.mailer.Send(ctx, subject, body, []string{owner.Email}); err != nil {
		e.logger.Warn().Err(err).Str("ownerId", project.OwnerID.String()).Msg("error sending notification email")
	}
}

func actorName(name string, identity *auth.Identity) string {
	if name != "" {
		return name
	}
	if local := identity.EmailLocalPart(); local != "" {
		return local
	}
	return "Someone"
}
