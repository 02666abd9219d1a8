package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type authHandler struct {
	responder  Responder
	logger     zerolog.Logger
	auth       *auth.Service
	workspaces *Workspaces
}

func newAuthHandler(service *auth.Service, workspaces *Workspaces) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder:  NewResponder(logger),
		logger:     logger,
		auth:       service,
		workspaces: workspaces,
	}
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name" validate:"max=100"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleCallbackRequest struct {
	Code string `json:"code" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=128"`
}

type GoogleURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// signUp creates a password account and returns a session token
// @Summary Sign up
// @Tags Auth
// @Accept json
// @Produce json
// @Success 201 {object} SessionResponse
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /auth/signup [post]
func (h authHandler) signUp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignUpRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		identity, token, err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.Name)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.workspaces.For(identity)
		h.responder.WriteCreated(w, SessionResponse{Token: token, User: identity})
	}
}

func (h authHandler) signIn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignInRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		identity, token, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.workspaces.For(identity)
		h.responder.WriteJSON(w, SessionResponse{Token: token, User: identity})
	}
}

func (h authHandler) googleURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		if state == "" {
			state = uuid.NewString()
		}
		url, err := h.auth.GoogleAuthURL(state)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, GoogleURLResponse{URL: url, State: state})
	}
}

func (h authHandler) googleCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GoogleCallbackRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		identity, token, err := h.auth.SignInWithGoogle(r.Context(), req.Code)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.workspaces.For(identity)
		h.responder.WriteJSON(w, SessionResponse{Token: token, User: identity})
	}
}

// signOut revokes the bearer token and tears down the caller's workspace, releasing
// its notification subscription.
func (h authHandler) signOut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := identityFromCtx(r.Context())
		if err := h.auth.SignOut(r.Context(), identity); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.workspaces.Close(identity.UID)
		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}

func (h authHandler) changePassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChangePasswordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		identity := identityFromCtx(r.Context())
		if err := h.auth.ChangePassword(r.Context(), identity.UID, req.CurrentPassword, req.NewPassword); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}
