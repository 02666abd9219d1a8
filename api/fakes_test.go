package api

import (
	"context"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"gorm.io/datatypes"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

// store is one in-memory backend serving every adapter interface of the router.
type store struct {
	mu            sync.Mutex
	projects      map[uuid.UUID]*models.Project
	comments      map[uuid.UUID][]*models.Comment
	profiles      map[uuid.UUID]*models.UserProfile
	bookmarks     map[uuid.UUID]*models.Bookmark
	notifications map[uuid.UUID]*models.Notification
	credentials   map[uuid.UUID]*models.Credential
	blobs         map[string][]byte
	subscribers   map[int]func()
	nextSub       int
}

func newStore() *store {
	return &store{
		projects:      map[uuid.UUID]*models.Project{},
		comments:      map[uuid.UUID][]*models.Comment{},
		profiles:      map[uuid.UUID]*models.UserProfile{},
		bookmarks:     map[uuid.UUID]*models.Bookmark{},
		notifications: map[uuid.UUID]*models.Notification{},
		credentials:   map[uuid.UUID]*models.Credential{},
		blobs:         map[string][]byte{},
		subscribers:   map[int]func(){},
	}
}

func copyProject(p *models.Project) *models.Project {
	cp := *p
	cp.Likes = append(models.Likes{}, p.Likes...)
	return &cp
}

func (s *store) projectsWhere(keep func(*models.Project) bool) []*models.Project {
	out := []*models.Project{}
	for _, p := range s.projects {
		if keep(p) {
			out = append(out, copyProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// projectStore

type projectStore struct{ *store }

func (s projectStore) List(context.Context) ([]*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectsWhere(func(*models.Project) bool { return true }), nil
}

func (s projectStore) ListByOwner(_ context.Context, owner uuid.UUID, limit int) ([]*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.projectsWhere(func(p *models.Project) bool { return p.OwnerID == owner })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s projectStore) ListTopByOwner(ctx context.Context, owner uuid.UUID, limit int) ([]*models.Project, error) {
	out, _ := s.ListByOwner(ctx, owner, 0)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s projectStore) ListLikedBy(_ context.Context, uid string) ([]*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectsWhere(func(p *models.Project) bool { return p.Likes.Contains(uid) }), nil
}

func (s projectStore) FindByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, errs.NewNotFoundError("project not found")
	}
	return copyProject(p), nil
}

func (s projectStore) Add(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = copyProject(p)
	return nil
}

func (s projectStore) Update(_ context.Context, id uuid.UUID, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return errs.NewNotFoundError("project not found")
	}
	for k, v := range fields {
		switch k {
		case "title":
			p.Title = v.(string)
		case "description":
			p.Description = v.(string)
		case "tags":
			p.Tags = v.(datatypes.JSONSlice[string])
		}
	}
	return nil
}

func (s projectStore) UpdateLikes(_ context.Context, id uuid.UUID, fn func(models.Likes) models.Likes) (models.Likes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, errs.NewNotFoundError("project not found")
	}
	p.Likes = models.NormalizeLikes(fn(models.NormalizeLikes(p.Likes)))
	return append(models.Likes{}, p.Likes...), nil
}

func (s projectStore) IncrementViews(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return errs.NewNotFoundError("project not found")
	}
	p.Views++
	return nil
}

func (s projectStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, id)
	return nil
}

// commentStore

type commentStore struct{ *store }

func (s commentStore) List(_ context.Context, projectID uuid.UUID) ([]*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Comment{}
	for _, c := range s.comments[projectID] {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (s commentStore) CountByProjects(_ context.Context, ids []uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range ids {
		n += len(s.comments[id])
	}
	return n, nil
}

func (s commentStore) Add(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.comments[c.ProjectID] = append(s.comments[c.ProjectID], &cp)
	return nil
}

func (s commentStore) Delete(_ context.Context, projectID, commentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := []*models.Comment{}
	for _, c := range s.comments[projectID] {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	s.comments[projectID] = kept
	return nil
}

// profileStore

type profileStore struct{ *store }

func (s profileStore) FindByID(_ context.Context, uid uuid.UUID) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[uid]
	if !ok {
		return nil, errs.NewNotFoundError("user not found")
	}
	cp := *p
	return &cp, nil
}

func (s profileStore) FindByIDs(ctx context.Context, uids []uuid.UUID) (map[uuid.UUID]*models.UserProfile, error) {
	out := map[uuid.UUID]*models.UserProfile{}
	for _, uid := range uids {
		if p, err := s.FindByID(ctx, uid); err == nil {
			out[uid] = p
		}
	}
	return out, nil
}

func (s profileStore) Seed(_ context.Context, p *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UID]; !ok {
		cp := *p
		s.profiles[p.UID] = &cp
	}
	return nil
}

func (s profileStore) Update(_ context.Context, uid uuid.UUID, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[uid]
	if !ok {
		return errs.NewNotFoundError("user not found")
	}
	for k, v := range fields {
		switch k {
		case "name":
			p.Name = v.(string)
		case "bio":
			b := v.(string)
			p.Bio = &b
		case "photo_url":
			u := v.(string)
			p.PhotoURL = &u
		case "email_notifications":
			p.EmailNotifications = v.(bool)
		}
	}
	return nil
}

// bookmarkStore

type bookmarkStore struct{ *store }

func (s bookmarkStore) ListByUser(_ context.Context, uid uuid.UUID) ([]*models.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Bookmark{}
	for _, b := range s.bookmarks {
		if b.UserID == uid {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s bookmarkStore) Add(_ context.Context, b *models.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookmarks[b.ID] = &cp
	return nil
}

func (s bookmarkStore) UpdateSnapshot(ctx context.Context, b *models.Bookmark) error {
	return s.Add(ctx, b)
}

func (s bookmarkStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookmarks, id)
	return nil
}

// notificationStore

type notificationStore struct{ *store }

func (s notificationStore) ordered(uid uuid.UUID) []*models.Notification {
	out := []*models.Notification{}
	for _, n := range s.notifications {
		if n.UserID == uid {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s notificationStore) firstPage(uid uuid.UUID, size int) []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.ordered(uid)
	if len(all) > size {
		all = all[:size]
	}
	return all
}

func (s notificationStore) Subscribe(_ context.Context, uid uuid.UUID, size int, onPage func([]*models.Notification), _ func(error)) (func(), error) {
	onPage(s.firstPage(uid, size))

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = func() { onPage(s.firstPage(uid, size)) }
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}, nil
}

func (s notificationStore) PageAfter(_ context.Context, uid uuid.UUID, cursor *models.Notification, size int) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.ordered(uid)
	start := len(all)
	for i, n := range all {
		if n.ID == cursor.ID {
			start = i + 1
			break
		}
	}
	page := all[start:]
	if len(page) > size {
		page = page[:size]
	}
	return page, nil
}

func (s notificationStore) MarkRead(_ context.Context, uid, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != uid {
		return errs.NewNotFoundError("notification not found")
	}
	n.Read = true
	n.ReadAt = &at
	return nil
}

func (s notificationStore) Add(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	s.notifications[n.ID] = &cp
	fns := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

func (s notificationStore) subscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// blobStore

type blobStore struct{ *store }

func (s blobStore) Upload(_ context.Context, path string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = data
	return "https://blobs.test/v0/b/app/o/" + url.PathEscape(path) + "?alt=media", nil
}

func (s blobStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, path)
	return nil
}

// credentialStore

type credentialStore struct{ *store }

func (s credentialStore) FindByEmail(_ context.Context, email string) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.credentials {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, errs.NewNotFoundError("credential not found")
}

func (s credentialStore) FindByID(_ context.Context, uid uuid.UUID) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentials[uid]
	if !ok {
		return nil, errs.NewNotFoundError("credential not found")
	}
	cp := *c
	return &cp, nil
}

func (s credentialStore) Add(_ context.Context, c *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.credentials[c.UID] = &cp
	return nil
}

func (s credentialStore) UpdatePassword(_ context.Context, uid uuid.UUID, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[uid].PasswordHash = hash
	return nil
}
