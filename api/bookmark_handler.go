package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type bookmarkHandler struct {
	responder  Responder
	logger     zerolog.Logger
	workspaces *Workspaces
}

func newBookmarkHandler(workspaces *Workspaces) bookmarkHandler {
	logger := log.With().Str("handlerName", "bookmarkHandler").Logger()

	return bookmarkHandler{
		responder:  NewResponder(logger),
		logger:     logger,
		workspaces: workspaces,
	}
}

type BookmarkCollection struct {
	Bookmarks []models.Bookmark `json:"bookmarks"`
	Total     int               `json:"total"`
}

type BookmarkRequest struct {
	ProjectID string `json:"projectId" validate:"required,uuid"`
}

type ResyncResponse struct {
	Refreshed int `json:"refreshed"`
}

func (h bookmarkHandler) listBookmarks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFor(h.workspaces, r)
		bookmarks, err := ws.Bookmarks.List(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if bookmarks == nil {
			bookmarks = []models.Bookmark{}
		}
		h.responder.WriteJSON(w, BookmarkCollection{Bookmarks: bookmarks, Total: len(bookmarks)})
	}
}

// addBookmark snapshots the project into the caller's bookmarks
// @Summary Add bookmark
// @Tags Bookmarks
// @Accept json
// @Produce json
// @Success 201 {object} models.Bookmark
// @Failure 404 {object} ErrorResponse "Project not found"
// @Router /bookmarks [post]
func (h bookmarkHandler) addBookmark() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookmarkRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		projectID, err := uuid.Parse(req.ProjectID)
		if err != nil {
			h.responder.WriteError(w, errs.NewInvalidFieldError("projectId", "must be a uuid"))
			return
		}

		ws := workspaceFor(h.workspaces, r)
		project, err := lookupProject(r, ws, projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		bookmark, err := ws.Bookmarks.Add(r.Context(), project)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteCreated(w, bookmark)
	}
}

func (h bookmarkHandler) removeBookmark() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookmarkID, err := uuidParam(r, "bookmarkID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ws := workspaceFor(h.workspaces, r)
		if err := ws.Bookmarks.Remove(r.Context(), bookmarkID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}

func (h bookmarkHandler) resync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFor(h.workspaces, r)
		refreshed, err := ws.Bookmarks.Resync(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, ResyncResponse{Refreshed: refreshed})
	}
}
