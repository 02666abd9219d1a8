package database

import (
	"gorm.io/gorm"
)

type Database struct {
	projectRepo      *ProjectRepo
	commentRepo      *CommentRepo
	bookmarkRepo     *BookmarkRepo
	notificationRepo *NotificationRepo
	userRepo         *UserRepo
	credentialRepo   *CredentialRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance.
// listener may be nil, in which case notification subscriptions only deliver the initial page.
func New(db *gorm.DB, listener *Listener) Database {
	return Database{
		projectRepo:      NewProjectRepo(db),
		commentRepo:      NewCommentRepo(db),
		bookmarkRepo:     NewBookmarkRepo(db),
		notificationRepo: NewNotificationRepo(db, listener),
		userRepo:         NewUserRepo(db),
		credentialRepo:   NewCredentialRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) CommentRepo() *CommentRepo {
	return d.commentRepo
}

func (d Database) BookmarkRepo() *BookmarkRepo {
	return d.bookmarkRepo
}

func (d Database) NotificationRepo() *NotificationRepo {
	return d.notificationRepo
}

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

func (d Database) CredentialRepo() *CredentialRepo {
	return d.credentialRepo
}
