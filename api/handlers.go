package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"github.com/rpupo63/projecthub-backend/services"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Deps) *routeHandlers {
	return &routeHandlers{
		authHandler:         newAuthHandler(deps.Auth, deps.Workspaces),
		projectHandler:      newProjectHandler(deps.Workspaces),
		bookmarkHandler:     newBookmarkHandler(deps.Workspaces),
		notificationHandler: newNotificationHandler(deps.Workspaces),
		profileHandler:      newProfileHandler(deps.Workspaces),
		functionHandler:     newFunctionHandler(deps.Views),
	}
}

// workspaceFor returns the workspace of the authenticated caller.
func workspaceFor(workspaces *Workspaces, r *http.Request) *Workspace {
	return workspaces.For(identityFromCtx(r.Context()))
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errs.NewMissingRequiredFieldError(name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewInvalidFieldError(name, "must be a uuid")
	}
	return id, nil
}

// lookupProject prefers the workspace caches before reading the store.
func lookupProject(r *http.Request, ws *Workspace, id uuid.UUID) (*models.Project, error) {
	if current := ws.Projects.Current(); current != nil && current.ID == id {
		return current, nil
	}
	for _, p := range ws.Projects.Projects() {
		if p.ID == id {
			return p, nil
		}
	}
	return ws.Projects.FetchProject(r.Context(), id)
}

// ensureFeed opens the live subscription on first use.
func ensureFeed(r *http.Request, ws *Workspace) error {
	if ws.Feed.State() == services.FeedListening {
		return nil
	}
	return feedErr(ws.Feed.Subscribe(r.Context()))
}

func feedErr(err error) error {
	if errors.Is(err, services.ErrFeedClosed) {
		return errs.NewUnauthenticatedError("session ended")
	}
	return err
}
