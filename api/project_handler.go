package api

import (
	"net/http"
	"strconv"

	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"github.com/rpupo63/projecthub-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type projectHandler struct {
	responder  Responder
	logger     zerolog.Logger
	workspaces *Workspaces
}

func newProjectHandler(workspaces *Workspaces) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:  NewResponder(logger),
		logger:     logger,
		workspaces: workspaces,
	}
}

// ProjectCollection represents multiple projects
type ProjectCollection struct {
	Projects []*models.Project `json:"projects"`
	Total    int               `json:"total"`
}

func newProjectCollection(projects []*models.Project) ProjectCollection {
	if projects == nil {
		projects = []*models.Project{}
	}
	return ProjectCollection{Projects: projects, Total: len(projects)}
}

// ProjectRequest is the JSON form of create and update. Omitted fields are unchanged on update.
type ProjectRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Tags        []string `json:"tags" validate:"omitempty,max=32,dive,max=40"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// readProjectRequest accepts either multipart (with an optional thumbnail part) or JSON.
func readProjectRequest(w http.ResponseWriter, r *http.Request) (ProjectRequest, *services.Upload, error) {
	var req ProjectRequest
	if !isMultipart(r) {
		err := decodeJSON(w, r, &req)
		return req, nil, err
	}

	if err := parseMultipart(w, r); err != nil {
		return req, nil, err
	}
	req.Title = formValue(r, "title")
	req.Description = formValue(r, "description")
	if raw := formValue(r, "tags"); raw != nil {
		req.Tags = services.SplitTags(*raw)
	}
	if err := validateStruct(&req); err != nil {
		return req, nil, err
	}
	thumbnail, err := formUpload(r, "thumbnail")
	return req, thumbnail, err
}

// listProjects retrieves every project, newest first
// @Summary List projects
// @Tags Projects
// @Produce json
// @Success 200 {object} ProjectCollection
// @Router /projects [get]
func (h projectHandler) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFor(h.workspaces, r)
		projects, err := ws.Projects.ListProjects(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, newProjectCollection(projects))
	}
}

func (h projectHandler) myProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFor(h.workspaces, r)
		projects, err := ws.Projects.FetchMyProjects(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, newProjectCollection(projects))
	}
}

// recentProjects and likedProjects degrade to an empty list on store failure.
func (h projectHandler) recentProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFor(h.workspaces, r)
		h.responder.WriteJSON(w, newProjectCollection(ws.Projects.FetchRecentProjects(r.Context())))
	}
}

func (h projectHandler) likedProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFor(h.workspaces, r)
		h.responder.WriteJSON(w, newProjectCollection(ws.Projects.FetchLikedProjects(r.Context())))
	}
}

func (h projectHandler) topProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFor(h.workspaces, r)
		projects, err := ws.Projects.FetchTopProjects(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, newProjectCollection(projects))
	}
}

// createProject creates a project owned by the caller
// @Summary Create project
// @Tags Projects
// @Accept multipart/form-data,json
// @Produce json
// @Success 201 {object} CreatedResponse
// @Failure 400 {object} ErrorResponse "Invalid title or thumbnail"
// @Router /projects [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, thumbnail, err := readProjectRequest(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if req.Title == nil {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("title"))
			return
		}

		in := services.NewProject{
			Title:     *req.Title,
			Tags:      req.Tags,
			Thumbnail: thumbnail,
		}
		if req.Description != nil {
			in.Description = *req.Description
		}

		ws := workspaceFor(h.workspaces, r)
		id, err := ws.Projects.CreateProject(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteCreated(w, CreatedResponse{ID: id.String()})
	}
}

// getProject loads one project with its owner and comments
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} models.Project
// @Failure 404 {object} ErrorResponse "Project not found"
// @Router /projects/{projectID} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ws := workspaceFor(h.workspaces, r)
		project, err := ws.Projects.FetchProject(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		req, thumbnail, err := readProjectRequest(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ws := workspaceFor(h.workspaces, r)
		err = ws.Projects.UpdateProject(r.Context(), projectID, services.ProjectUpdate{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
			Thumbnail:   thumbnail,
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := lookupProject(r, ws, projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

// deleteProject removes the project. thumbnailPath may be a bare path or a signed URL
// inside the owner's thumbnail folder.
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ws := workspaceFor(h.workspaces, r)
		if err := ws.Projects.DeleteProject(r.Context(), projectID, r.URL.Query().Get("thumbnailPath")); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}

func (h projectHandler) toggleLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ws := workspaceFor(h.workspaces, r)
		project, err := lookupProject(r, ws, projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		updated, err := ws.Projects.ToggleLike(r.Context(), project)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, updated)
	}
}

func (h projectHandler) recordView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ws := workspaceFor(h.workspaces, r)
		if err := ws.Projects.RecordView(r.Context(), projectID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}

func (h projectHandler) addComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		var req CommentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ws := workspaceFor(h.workspaces, r)
		comment, err := ws.Projects.AddComment(r.Context(), projectID, req.Text)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteCreated(w, comment)
	}
}

func (h projectHandler) removeComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		commentID, err := uuidParam(r, "commentID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ws := workspaceFor(h.workspaces, r)
		if err := ws.Projects.RemoveComment(r.Context(), projectID, commentID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}

// stats returns the caller's totals and 30 day trends
// @Summary Get user stats
// @Tags Projects
// @Produce json
// @Success 200 {object} services.UserStats
// @Router /stats [get]
func (h projectHandler) stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := identityFromCtx(r.Context())
		ws := workspaceFor(h.workspaces, r)
		stats, err := ws.Projects.FetchUserStats(r.Context(), identity.UID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, stats)
	}
}

func (h projectHandler) analytics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rangeDays := 0
		if raw := r.URL.Query().Get("range"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 365 {
				h.responder.WriteValidationError(w, "range", "range must be between 1 and 365 days")
				return
			}
			rangeDays = n
		}

		ws := workspaceFor(h.workspaces, r)
		analytics, err := ws.Projects.FetchAnalytics(r.Context(), rangeDays)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, analytics)
	}
}
