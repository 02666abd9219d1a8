package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"gorm.io/gorm"
)

type NotificationRepo struct {
	db       *gorm.DB
	listener *Listener
}

func NewNotificationRepo(db *gorm.DB, listener *Listener) *NotificationRepo {
	return &NotificationRepo{db: db, listener: listener}
}

func (r *NotificationRepo) feed(ctx context.Context, userID uuid.UUID, pageSize int) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pageSize)
}

// FirstPage returns the newest pageSize notifications of a user
func (r *NotificationRepo) FirstPage(ctx context.Context, userID uuid.UUID, pageSize int) ([]*models.Notification, error) {
	var page []*models.Notification
	if err := r.feed(ctx, userID, pageSize).Find(&page).Error; err != nil {
		return nil, errs.NewDatabaseError("list", "notifications", err)
	}
	return page, nil
}

// PageAfter returns the page that strictly follows cursor in (created_at, id) descending order
func (r *NotificationRepo) PageAfter(ctx context.Context, userID uuid.UUID, cursor *models.Notification, pageSize int) ([]*models.Notification, error) {
	var page []*models.Notification
	err := r.feed(ctx, userID, pageSize).
		Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID).
		Find(&page).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "notifications", err)
	}
	return page, nil
}

// Subscribe delivers the first page immediately and again after every change to the
// user's notifications. The returned func releases the subscription.
func (r *NotificationRepo) Subscribe(ctx context.Context, userID uuid.UUID, pageSize int, onPage func([]*models.Notification), onErr func(error)) (func(), error) {
	page, err := r.FirstPage(ctx, userID, pageSize)
	if err != nil {
		return nil, err
	}
	onPage(page)

	if r.listener == nil {
		return func() {}, nil
	}
	return r.listener.Watch(userID.String(), func(ctx context.Context) {
		page, err := r.FirstPage(ctx, userID, pageSize)
		if err != nil {
			onErr(err)
			return
		}
		onPage(page)
	}), nil
}

// MarkRead sets read=true and readAt on one of the user's notifications
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ? AND user_id = ?", id, userID).Updates(map[string]any{
		"read":    true,
		"read_at": at,
	})
	if res.Error != nil {
		return errs.NewDatabaseError("mark read", "notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFoundError("notification not found")
	}
	return nil
}

// Add inserts a notification; used by backend triggers only
func (r *NotificationRepo) Add(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return errs.NewDatabaseError("create", "notification", err)
	}
	return nil
}
