package api

import (
	"github.com/go-chi/chi/v5"
)

// setupPublicRoutes registers sign-in flows and callables.
func setupPublicRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Post("/auth/signup", handlers.authHandler.signUp())
		r.Post("/auth/login", handlers.authHandler.signIn())
		r.Get("/auth/google/url", handlers.authHandler.googleURL())
		r.Post("/auth/google/callback", handlers.authHandler.googleCallback())

		r.With(authMiddleware.identify).Post("/functions/recordProjectView", handlers.functionHandler.recordProjectView())
	})
}

// setupAuthenticatedRoutes sets up all routes with authentication
func setupAuthenticatedRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.authenticate)
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Post("/auth/logout", handlers.authHandler.signOut())
		r.Post("/auth/password", handlers.authHandler.changePassword())

		// Project Handler endpoints
		r.Get("/projects", handlers.projectHandler.listProjects())
		r.Get("/projects/mine", handlers.projectHandler.myProjects())
		r.Get("/projects/recent", handlers.projectHandler.recentProjects())
		r.Get("/projects/liked", handlers.projectHandler.likedProjects())
		r.Get("/projects/top", handlers.projectHandler.topProjects())
		r.Post("/projects", handlers.projectHandler.createProject())
		r.Get("/projects/{projectID}", handlers.projectHandler.getProject())
		r.Put("/projects/{projectID}", handlers.projectHandler.updateProject())
		r.Delete("/projects/{projectID}", handlers.projectHandler.deleteProject())
		r.Post("/projects/{projectID}/like", handlers.projectHandler.toggleLike())
		r.Post("/projects/{projectID}/view", handlers.projectHandler.recordView())
		r.Post("/projects/{projectID}/comments", handlers.projectHandler.addComment())
		r.Delete("/projects/{projectID}/comments/{commentID}", handlers.projectHandler.removeComment())
		r.Get("/stats", handlers.projectHandler.stats())
		r.Get("/analytics", handlers.projectHandler.analytics())

		// Bookmark Handler endpoints
		r.Get("/bookmarks", handlers.bookmarkHandler.listBookmarks())
		r.Post("/bookmarks", handlers.bookmarkHandler.addBookmark())
		r.Post("/bookmarks/resync", handlers.bookmarkHandler.resync())
		r.Delete("/bookmarks/{bookmarkID}", handlers.bookmarkHandler.removeBookmark())

		// Notification Handler endpoints
		r.Get("/notifications", handlers.notificationHandler.feed())
		r.Post("/notifications/more", handlers.notificationHandler.loadMore())
		r.Post("/notifications/read-all", handlers.notificationHandler.markAllAsRead())
		r.Post("/notifications/{notificationID}/read", handlers.notificationHandler.markAsRead())

		// Profile Handler endpoints
		r.Get("/profile", handlers.profileHandler.getProfile())
		r.Put("/profile", handlers.profileHandler.updateProfile())
		r.Put("/profile/email-notifications", handlers.profileHandler.updateEmailNotifications())
	})

	// websocket upgrades bypass the request logger
	r.With(authMiddleware.authenticate).Get("/notifications/stream", handlers.notificationHandler.stream())
}
