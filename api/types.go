package api

import (
	"github.com/rpupo63/projecthub-backend/auth"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	authHandler         authHandler
	projectHandler      projectHandler
	bookmarkHandler     bookmarkHandler
	notificationHandler notificationHandler
	profileHandler      profileHandler
	functionHandler     functionHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string `json:"error" example:"Internal Server Error"`
	Status  string `json:"status" example:"error"`
	Code    string `json:"code,omitempty" example:"not-found"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

// SessionResponse is returned by every sign-in flow
type SessionResponse struct {
	Token string         `json:"token"`
	User  *auth.Identity `json:"user"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
