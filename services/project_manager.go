package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/metrics"
	"github.com/rpupo63/projecthub-backend/models"
	"github.com/rpupo63/projecthub-backend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	recentProjectsLimit = 6
	topProjectsLimit    = 5
)

type ProjectDeps struct {
	Projects ProjectStore
	Comments CommentStore
	Profiles ProfileStore
	Blobs    BlobStore
	Views    ViewRecorder
	Identity IdentitySource
	Notifier EngagementNotifier // optional
}

// ProjectManager owns the project caches of one identity and the operations that keep
// them converged with the store.
type ProjectManager struct {
	projects ProjectStore
	comments CommentStore
	profiles ProfileStore
	blobs    BlobStore
	views    ViewRecorder
	identity IdentitySource
	notifier EngagementNotifier
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	list    []*models.Project
	current *models.Project
	liked   map[uuid.UUID]struct{}
	stats   *UserStats
}

func NewProjectManager(deps ProjectDeps) *ProjectManager {
	return &ProjectManager{
		projects: deps.Projects,
		comments: deps.Comments,
		profiles: deps.Profiles,
		blobs:    deps.Blobs,
		views:    deps.Views,
		identity: deps.Identity,
		notifier: deps.Notifier,
		logger:   log.With().Str("component", "projectManager").Logger(),
		now:      time.Now,
		liked:    make(map[uuid.UUID]struct{}),
	}
}

type NewProject struct {
	Title       string
	Description string
	Tags        []string
	Thumbnail   *Upload
}

// ProjectUpdate carries the fields to change; nil means unchanged.
type ProjectUpdate struct {
	Title       *string
	Description *string
	Tags        []string
	Thumbnail   *Upload
}

func (m *ProjectManager) viewer() string {
	if id := m.identity.Current(); id != nil {
		return id.UID.String()
	}
	return ""
}

func (m *ProjectManager) requireIdentity() (*auth.Identity, error) {
	id := m.identity.Current()
	if id == nil {
		return nil, errs.NewUnauthenticatedError("must be signed in")
	}
	return id, nil
}

// ListProjects loads every project, newest first, and replaces the list cache.
func (m *ProjectManager) ListProjects(ctx context.Context) ([]*models.Project, error) {
	all, err := m.projects.List(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("error fetching projects")
		return nil, err
	}
	out := m.decorateAll(all)

	m.mu.Lock()
	m.list = cloneProjects(out)
	m.mu.Unlock()
	return out, nil
}

// CreateProject uploads the thumbnail first, then writes the document. A failed write
// removes the uploaded blob.
func (m *ProjectManager) CreateProject(ctx context.Context, in NewProject) (uuid.UUID, error) {
	identity, err := m.requireIdentity()
	if err != nil {
		return uuid.Nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return uuid.Nil, errs.NewInvalidFieldError("title", "title is required")
	}

	now := m.now()
	project := &models.Project{
		ID:          uuid.New(),
		OwnerID:     identity.UID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Tags:        datatypes.JSONSlice[string](NormalizeTags(in.Tags)),
		Views:       0,
		Likes:       models.Likes{},
		Status:      models.ProjectStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var uploaded string
	if in.Thumbnail != nil {
		url, path, err := m.uploadThumbnail(ctx, identity, in.Thumbnail, now)
		if err != nil {
			return uuid.Nil, err
		}
		uploaded = path
		project.ThumbnailURL = &url
		project.ThumbnailStoragePath = &path
	}

	if err := m.projects.Add(ctx, project); err != nil {
		m.logger.Error().Err(err).Str("title", title).Msg("error creating project")
		if uploaded != "" {
			if derr := m.blobs.Delete(ctx, uploaded); derr != nil {
				m.logger.Warn().Err(derr).Str("path", uploaded).Msg("failed to clean up thumbnail after create error")
			}
		}
		return uuid.Nil, err
	}

	project.Decorate(identity.UID.String())
	m.mu.Lock()
	m.list = append([]*models.Project{cloneProject(project)}, m.list...)
	m.mu.Unlock()
	return project.ID, nil
}

func (m *ProjectManager) uploadThumbnail(ctx context.Context, identity *auth.Identity, upload *Upload, now time.Time) (string, string, error) {
	contentType, err := storage.ValidateImage(upload.Data)
	if err != nil {
		return "", "", err
	}
	path := storage.ThumbnailPath(identity.UID.String(), upload.Filename, now)
	url, err := m.blobs.Upload(ctx, path, upload.Data, contentType)
	if err != nil {
		m.logger.Error().Err(err).Str("path", path).Msg("error uploading thumbnail")
		return "", "", err
	}
	return url, path, nil
}

func (m *ProjectManager) ownedProject(ctx context.Context, identity *auth.Identity, id uuid.UUID) (*models.Project, error) {
	project, err := m.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != identity.UID {
		return nil, errs.NewPermissionDeniedError("only the owner can modify this project")
	}
	return project, nil
}

// UpdateProject writes the changed fields. A new thumbnail is uploaded before the old
// one is removed, and the old removal is best-effort.
func (m *ProjectManager) UpdateProject(ctx context.Context, id uuid.UUID, in ProjectUpdate) error {
	identity, err := m.requireIdentity()
	if err != nil {
		return err
	}
	existing, err := m.ownedProject(ctx, identity, id)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return errs.NewInvalidFieldError("title", "title is required")
		}
		fields["title"] = title
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Tags != nil {
		fields["tags"] = datatypes.JSONSlice[string](NormalizeTags(in.Tags))
	}

	if in.Thumbnail != nil {
		url, path, err := m.uploadThumbnail(ctx, identity, in.Thumbnail, m.now())
		if err != nil {
			return err
		}
		if old := thumbnailRef(existing); old != "" {
			if derr := m.blobs.Delete(ctx, storage.ResolvePath(old)); derr != nil {
				m.logger.Warn().Err(derr).Str("ref", old).Msg("failed to delete old thumbnail")
			}
		}
		fields["thumbnail_url"] = url
		fields["thumbnail_storage_path"] = path
	}

	if len(fields) == 0 {
		return nil
	}
	if err := m.projects.Update(ctx, id, fields); err != nil {
		m.logger.Error().Err(err).Str("projectId", id.String()).Msg("error updating project")
		return err
	}

	fresh, err := m.projects.FindByID(ctx, id)
	if err != nil {
		m.logger.Warn().Err(err).Str("projectId", id.String()).Msg("re-read after update failed")
		return nil
	}
	fresh.Decorate(identity.UID.String())
	m.merge(fresh)
	return nil
}

// DeleteProject removes the thumbnail blob best-effort, then the document. thumbnailPath
// may be a bare path or a signed URL. It is only honored inside thumbnails/{ownerId}/;
// otherwise the stored reference is used.
func (m *ProjectManager) DeleteProject(ctx context.Context, id uuid.UUID, thumbnailPath string) error {
	identity, err := m.requireIdentity()
	if err != nil {
		return err
	}
	existing, err := m.ownedProject(ctx, identity, id)
	if err != nil {
		return err
	}

	path := storage.ResolvePath(thumbnailRef(existing))
	if requested := storage.ResolvePath(thumbnailPath); requested != "" && requested != path {
		if storage.InThumbnailDir(requested, existing.OwnerID.String()) {
			path = requested
		} else {
			m.logger.Warn().Str("path", requested).Str("projectId", id.String()).Msg("refusing to delete thumbnail outside the owner's folder")
		}
	}
	if path != "" {
		if derr := m.blobs.Delete(ctx, path); derr != nil {
			m.logger.Warn().Err(derr).Str("path", path).Msg("failed to delete thumbnail, deleting project anyway")
		}
	}

	if err := m.projects.Delete(ctx, id); err != nil {
		m.logger.Error().Err(err).Str("projectId", id.String()).Msg("error deleting project")
		return err
	}

	m.mu.Lock()
	m.list = removeProject(m.list, id)
	if m.current != nil && m.current.ID == id {
		m.current = nil
	}
	delete(m.liked, id)
	m.mu.Unlock()
	return nil
}

// FetchProject loads a project with its owner and comments joined to live profiles.
func (m *ProjectManager) FetchProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := m.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		owner    *models.UserProfile
		comments []*models.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := m.profiles.FindByID(gctx, project.OwnerID)
		if err != nil {
			if !errs.IsNotFound(err) {
				m.logger.Warn().Err(err).Str("ownerId", project.OwnerID.String()).Msg("owner lookup failed")
			}
			return nil
		}
		owner = p
		return nil
	})
	g.Go(func() error {
		var err error
		comments, err = m.comments.List(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		m.logger.Error().Err(err).Str("projectId", id.String()).Msg("error fetching project comments")
		return nil, err
	}

	project.Comments = m.joinCommenters(ctx, comments)
	if owner != nil {
		project.OwnerName = owner.Name
		project.OwnerPhotoURL = owner.PhotoURL
	}
	project.Decorate(m.viewer())

	m.merge(project)
	m.mu.Lock()
	m.current = cloneProject(project)
	m.mu.Unlock()
	return project, nil
}

func (m *ProjectManager) joinCommenters(ctx context.Context, comments []*models.Comment) []models.Comment {
	ids := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	profiles, err := m.profiles.FindByIDs(ctx, ids)
	if err != nil {
		m.logger.Warn().Err(err).Msg("commenter lookup failed, using comment snapshots")
		profiles = nil
	}

	out := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		joined := *c
		if p, ok := profiles[c.UserID]; ok && p != nil {
			if p.Name != "" {
				joined.UserName = p.Name
			}
			if p.PhotoURL != nil {
				joined.UserPhotoURL = p.PhotoURL
			}
		}
		out = append(out, joined)
	}
	return out
}

// ToggleLike flips the caller's membership in the project's likes set.
func (m *ProjectManager) ToggleLike(ctx context.Context, project *models.Project) (*models.Project, error) {
	identity, err := m.requireIdentity()
	if err != nil {
		return nil, err
	}
	uid := identity.UID.String()

	var wasLiked bool
	likes, err := m.projects.UpdateLikes(ctx, project.ID, func(current models.Likes) models.Likes {
		wasLiked = current.Contains(uid)
		if wasLiked {
			return current.Without(uid)
		}
		return current.With(uid)
	})
	if err != nil {
		m.logger.Error().Err(err).Str("projectId", project.ID.String()).Msg("error toggling like")
		return nil, err
	}

	out := cloneProject(project)
	out.Likes = likes
	out.Decorate(uid)

	m.mu.Lock()
	for _, p := range m.list {
		if p.ID == out.ID {
			p.Likes = append(models.Likes{}, likes...)
			p.Decorate(uid)
		}
	}
	if m.current != nil && m.current.ID == out.ID {
		m.current.Likes = append(models.Likes{}, likes...)
		m.current.Decorate(uid)
	}
	if out.IsLiked {
		m.liked[out.ID] = struct{}{}
	} else {
		delete(m.liked, out.ID)
	}
	m.mu.Unlock()

	if wasLiked {
		metrics.RecordEngagement(metrics.EventUnlike)
	} else {
		metrics.RecordEngagement(metrics.EventLike)
		if m.notifier != nil {
			m.notifier.ProjectLiked(ctx, out, identity)
		}
	}
	return out, nil
}

// RecordView asks the backend to count one view.
func (m *ProjectManager) RecordView(ctx context.Context, id uuid.UUID) error {
	if err := m.views.RecordProjectView(ctx, id.String()); err != nil {
		m.logger.Error().Err(err).Str("projectId", id.String()).Msg("error recording view")
		return err
	}

	m.mu.Lock()
	for _, p := range m.list {
		if p.ID == id {
			p.Views++
		}
	}
	if m.current != nil && m.current.ID == id {
		m.current.Views++
	}
	m.mu.Unlock()
	return nil
}

// AddComment writes a comment under the project, then re-reads the project.
func (m *ProjectManager) AddComment(ctx context.Context, projectID uuid.UUID, text string) (*models.Comment, error) {
	identity, err := m.requireIdentity()
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.NewInvalidFieldError("text", "comment text is required")
	}

	profile, err := m.profiles.FindByID(ctx, identity.UID)
	if err != nil {
		if !errs.IsNotFound(err) {
			m.logger.Warn().Err(err).Str("uid", identity.UID.String()).Msg("profile lookup failed, using identity")
		}
		profile = nil
	}

	name := commenterName(profile, identity)
	if name == "" {
		return nil, errs.NewInvalidFieldError("userName", "commenter name could not be resolved")
	}
	photo := identity.PhotoURL
	if profile != nil && profile.PhotoURL != nil {
		photo = profile.PhotoURL
	}

	comment := &models.Comment{
		ID:           uuid.New(),
		ProjectID:    projectID,
		UserID:       identity.UID,
		UserName:     name,
		UserEmail:    identity.Email,
		UserPhotoURL: photo,
		Text:         text,
		CreatedAt:    m.now(),
	}
	if err := m.comments.Add(ctx, comment); err != nil {
		m.logger.Error().Err(err).Str("projectId", projectID.String()).Msg("error adding comment")
		return nil, err
	}
	metrics.RecordEngagement(metrics.EventComment)

	m.mu.Lock()
	if m.current != nil && m.current.ID == projectID {
		m.current.Comments = append([]models.Comment{*comment}, m.current.Comments...)
	}
	m.mu.Unlock()

	fresh, err := m.FetchProject(ctx, projectID)
	if err != nil {
		m.logger.Warn().Err(err).Str("projectId", projectID.String()).Msg("re-fetch after comment failed")
		return comment, nil
	}
	if m.notifier != nil {
		m.notifier.CommentAdded(ctx, fresh, comment)
	}
	return comment, nil
}

func commenterName(profile *models.UserProfile, identity *auth.Identity) string {
	if profile != nil && strings.TrimSpace(profile.Name) != "" {
		return strings.TrimSpace(profile.Name)
	}
	if name := strings.TrimSpace(identity.DisplayName); name != "" {
		return name
	}
	if local := identity.EmailLocalPart(); local != "" {
		return local
	}
	uid := identity.UID.String()
	return "User_" + uid[:5]
}

// RemoveComment deletes a comment and drops it from the cached project.
func (m *ProjectManager) RemoveComment(ctx context.Context, projectID, commentID uuid.UUID) error {
	if _, err := m.requireIdentity(); err != nil {
		return err
	}
	if err := m.comments.Delete(ctx, projectID, commentID); err != nil {
		m.logger.Error().Err(err).Str("commentId", commentID.String()).Msg("error removing comment")
		return err
	}

	m.mu.Lock()
	if m.current != nil && m.current.ID == projectID {
		kept := m.current.Comments[:0]
		for _, c := range m.current.Comments {
			if c.ID != commentID {
				kept = append(kept, c)
			}
		}
		m.current.Comments = kept
	}
	m.mu.Unlock()
	return nil
}

// FetchUserStats aggregates the user's projects into counters and 30-day trends.
func (m *ProjectManager) FetchUserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	projects, err := m.projects.ListByOwner(ctx, userID, 0)
	if err != nil {
		m.logger.Error().Err(err).Str("uid", userID.String()).Msg("error fetching user stats")
		return nil, err
	}
	stats := ComputeStats(projects, m.now())

	m.mu.Lock()
	m.stats = &stats
	m.mu.Unlock()
	return &stats, nil
}

// FetchRecentProjects returns the caller's newest projects, or an empty list.
func (m *ProjectManager) FetchRecentProjects(ctx context.Context) []*models.Project {
	identity := m.identity.Current()
	if identity == nil {
		return []*models.Project{}
	}
	projects, err := m.projects.ListByOwner(ctx, identity.UID, recentProjectsLimit)
	if err != nil {
		m.logger.Error().Err(err).Msg("error fetching recent projects")
		return []*models.Project{}
	}
	return m.decorateAll(projects)
}

// FetchLikedProjects returns projects the caller liked, newest first, or an empty list.
func (m *ProjectManager) FetchLikedProjects(ctx context.Context) []*models.Project {
	identity := m.identity.Current()
	if identity == nil {
		return []*models.Project{}
	}
	projects, err := m.projects.ListLikedBy(ctx, identity.UID.String())
	if err != nil {
		m.logger.Error().Err(err).Msg("error fetching liked projects")
		return []*models.Project{}
	}
	out := m.decorateAll(projects)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	liked := make(map[uuid.UUID]struct{}, len(out))
	for _, p := range out {
		liked[p.ID] = struct{}{}
	}
	m.mu.Lock()
	m.liked = liked
	m.mu.Unlock()
	return out
}

// FetchMyProjects loads the caller's projects and replaces the list cache.
func (m *ProjectManager) FetchMyProjects(ctx context.Context) ([]*models.Project, error) {
	identity, err := m.requireIdentity()
	if err != nil {
		return nil, err
	}
	projects, err := m.projects.ListByOwner(ctx, identity.UID, 0)
	if err != nil {
		m.logger.Error().Err(err).Msg("error fetching user projects")
		return nil, err
	}
	out := m.decorateAll(projects)

	m.mu.Lock()
	m.list = cloneProjects(out)
	m.mu.Unlock()
	return out, nil
}

// FetchTopProjects returns the caller's most viewed projects.
func (m *ProjectManager) FetchTopProjects(ctx context.Context) ([]*models.Project, error) {
	identity, err := m.requireIdentity()
	if err != nil {
		return nil, err
	}
	projects, err := m.projects.ListTopByOwner(ctx, identity.UID, topProjectsLimit)
	if err != nil {
		m.logger.Error().Err(err).Msg("error fetching top projects")
		return nil, err
	}
	return m.decorateAll(projects), nil
}

// Initialize loads the project list and, when signed in, the caller's stats.
func (m *ProjectManager) Initialize(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := m.ListProjects(gctx)
		return err
	})
	if identity := m.identity.Current(); identity != nil {
		g.Go(func() error {
			_, err := m.FetchUserStats(gctx, identity.UID)
			return err
		})
	}
	return g.Wait()
}

func (m *ProjectManager) decorateAll(projects []*models.Project) []*models.Project {
	viewer := m.viewer()
	out := make([]*models.Project, 0, len(projects))
	for _, p := range projects {
		p.Decorate(viewer)
		out = append(out, p)
	}
	return out
}

// merge replaces the cached copy of p in the list, if present.
func (m *ProjectManager) merge(p *models.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cached := range m.list {
		if cached.ID == p.ID {
			cp := cloneProject(p)
			cp.Comments = nil
			m.list[i] = cp
		}
	}
	if m.current != nil && m.current.ID == p.ID {
		m.current = cloneProject(p)
	}
}

// Projects returns a copy of the cached list.
func (m *ProjectManager) Projects() []*models.Project {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneProjects(m.list)
}

// Current returns a copy of the most recently fetched project, if any.
func (m *ProjectManager) Current() *models.Project {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	return cloneProject(m.current)
}

func (m *ProjectManager) Stats() *UserStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stats == nil {
		return nil
	}
	s := *m.stats
	return &s
}

func (m *ProjectManager) IsProjectLiked(id uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.liked[id]
	return ok
}

func thumbnailRef(p *models.Project) string {
	if p.ThumbnailStoragePath != nil && *p.ThumbnailStoragePath != "" {
		return *p.ThumbnailStoragePath
	}
	if p.ThumbnailURL != nil {
		return *p.ThumbnailURL
	}
	return ""
}

func cloneProject(p *models.Project) *models.Project {
	cp := *p
	cp.Likes = append(models.Likes{}, p.Likes...)
	cp.Tags = append(datatypes.JSONSlice[string]{}, p.Tags...)
	if p.Comments != nil {
		cp.Comments = append([]models.Comment{}, p.Comments...)
	}
	return &cp
}

func cloneProjects(in []*models.Project) []*models.Project {
	out := make([]*models.Project, 0, len(in))
	for _, p := range in {
		out = append(out, cloneProject(p))
	}
	return out
}

func removeProject(list []*models.Project, id uuid.UUID) []*models.Project {
	out := list[:0]
	for _, p := range list {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
