package api

import (
	"net/http"

	"github.com/rpupo63/projecthub-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type profileHandler struct {
	responder  Responder
	logger     zerolog.Logger
	workspaces *Workspaces
}

func newProfileHandler(workspaces *Workspaces) profileHandler {
	logger := log.With().Str("handlerName", "profileHandler").Logger()

	return profileHandler{
		responder:  NewResponder(logger),
		logger:     logger,
		workspaces: workspaces,
	}
}

type ProfileRequest struct {
	Name *string `json:"name" validate:"omitempty,max=100"`
	Bio  *string `json:"bio" validate:"omitempty,max=1000"`
}

type EmailNotificationsRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (h profileHandler) getProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFor(h.workspaces, r)
		profile, err := ws.Profile.Resolve(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, profile)
	}
}

// updateProfile changes name and bio, and replaces the photo when a photo part is sent
// @Summary Update profile
// @Tags Profile
// @Accept multipart/form-data,json
// @Produce json
// @Success 200 {object} models.UserProfile
// @Router /profile [put]
func (h profileHandler) updateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProfileRequest
		var in services.ProfileUpdate

		if isMultipart(r) {
			if err := parseMultipart(w, r); err != nil {
				h.responder.WriteError(w, err)
				return
			}
			req.Name = formValue(r, "name")
			req.Bio = formValue(r, "bio")
			if err := validateStruct(&req); err != nil {
				h.responder.WriteError(w, err)
				return
			}
			photo, err := formUpload(r, "photo")
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			in.Photo = photo
		} else if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		in.Name = req.Name
		in.Bio = req.Bio

		ws := workspaceFor(h.workspaces, r)
		profile, err := ws.Profile.UpdateProfile(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, profile)
	}
}

func (h profileHandler) updateEmailNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EmailNotificationsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ws := workspaceFor(h.workspaces, r)
		if err := ws.Profile.UpdateEmailNotifications(r.Context(), *req.Enabled); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}
