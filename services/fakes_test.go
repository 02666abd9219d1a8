package services

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"gorm.io/datatypes"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

func signedIn(uid uuid.UUID, email, name string) *auth.Session {
	s := auth.NewSession()
	s.Set(&auth.Identity{UID: uid, Email: email, DisplayName: name})
	return s
}

type memProjects struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*models.Project
	addErr  error
	listErr error
	adds    int
}

func newMemProjects(projects ...*models.Project) *memProjects {
	m := &memProjects{byID: map[uuid.UUID]*models.Project{}}
	for _, p := range projects {
		m.byID[p.ID] = cloneProject(p)
	}
	return m
}

func (m *memProjects) sorted(keep func(*models.Project) bool, less func(a, b *models.Project) bool) []*models.Project {
	out := []*models.Project{}
	for _, p := range m.byID {
		if keep(p) {
			out = append(out, cloneProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func newestFirst(a, b *models.Project) bool { return a.CreatedAt.After(b.CreatedAt) }

func (m *memProjects) List(context.Context) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sorted(func(*models.Project) bool { return true }, newestFirst), nil
}

func (m *memProjects) ListByOwner(_ context.Context, owner uuid.UUID, limit int) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := m.sorted(func(p *models.Project) bool { return p.OwnerID == owner }, newestFirst)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memProjects) ListTopByOwner(_ context.Context, owner uuid.UUID, limit int) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sorted(func(p *models.Project) bool { return p.OwnerID == owner }, func(a, b *models.Project) bool { return a.Views > b.Views })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memProjects) ListLikedBy(_ context.Context, userID string) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sorted(func(p *models.Project) bool { return p.Likes.Contains(userID) }, func(a, b *models.Project) bool { return a.Title < b.Title }), nil
}

func (m *memProjects) FindByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, errs.NewNotFoundError("project not found")
	}
	return cloneProject(p), nil
}

func (m *memProjects) Add(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds++
	if m.addErr != nil {
		return m.addErr
	}
	m.byID[p.ID] = cloneProject(p)
	return nil
}

func (m *memProjects) Update(_ context.Context, id uuid.UUID, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
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
		case "thumbnail_url":
			s := v.(string)
			p.ThumbnailURL = &s
		case "thumbnail_storage_path":
			s := v.(string)
			p.ThumbnailStoragePath = &s
		}
	}
	return nil
}

func (m *memProjects) UpdateLikes(_ context.Context, id uuid.UUID, fn func(models.Likes) models.Likes) (models.Likes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, errs.NewNotFoundError("project not found")
	}
	p.Likes = models.NormalizeLikes(fn(models.NormalizeLikes(p.Likes)))
	return append(models.Likes{}, p.Likes...), nil
}

func (m *memProjects) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type memComments struct {
	mu        sync.Mutex
	byProject map[uuid.UUID][]*models.Comment
	adds      int
}

func newMemComments() *memComments {
	return &memComments{byProject: map[uuid.UUID][]*models.Comment{}}
}

func (m *memComments) List(_ context.Context, projectID uuid.UUID) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Comment{}
	for _, c := range m.byProject[projectID] {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memComments) CountByProjects(_ context.Context, ids []uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		n += len(m.byProject[id])
	}
	return n, nil
}

func (m *memComments) Add(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds++
	cp := *c
	m.byProject[c.ProjectID] = append(m.byProject[c.ProjectID], &cp)
	return nil
}

func (m *memComments) Delete(_ context.Context, projectID, commentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := []*models.Comment{}
	for _, c := range m.byProject[projectID] {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	m.byProject[projectID] = kept
	return nil
}

type memProfiles struct {
	mu    sync.Mutex
	byUID map[uuid.UUID]*models.UserProfile
}

func newMemProfiles(profiles ...*models.UserProfile) *memProfiles {
	m := &memProfiles{byUID: map[uuid.UUID]*models.UserProfile{}}
	for _, p := range profiles {
		cp := *p
		m.byUID[p.UID] = &cp
	}
	return m
}

func (m *memProfiles) FindByID(_ context.Context, uid uuid.UUID) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byUID[uid]
	if !ok {
		return nil, errs.NewNotFoundError("user not found")
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) FindByIDs(_ context.Context, uids []uuid.UUID) (map[uuid.UUID]*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uuid.UUID]*models.UserProfile{}
	for _, uid := range uids {
		if p, ok := m.byUID[uid]; ok {
			cp := *p
			out[uid] = &cp
		}
	}
	return out, nil
}

func (m *memProfiles) Update(_ context.Context, uid uuid.UUID, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byUID[uid]
	if !ok {
		return errs.NewNotFoundError("user not found")
	}
	for k, v := range fields {
		switch k {
		case "name":
			p.Name = v.(string)
		case "bio":
			s := v.(string)
			p.Bio = &s
		case "photo_url":
			s := v.(string)
			p.PhotoURL = &s
		case "email_notifications":
			p.EmailNotifications = v.(bool)
		case "updated_at":
			t := v.(time.Time)
			p.UpdatedAt = &t
		}
	}
	return nil
}

type memBlobs struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []string
	log       []string
	uploadErr error
	deleteErr error
}

func (m *memBlobs) Upload(_ context.Context, path string, _ []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, "upload:"+path)
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.uploads = append(m.uploads, path)
	return "https://blobs.test/v0/b/app/o/" + url.PathEscape(path) + "?alt=media&token=t", nil
}

func (m *memBlobs) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, "delete:"+path)
	m.deletes = append(m.deletes, path)
	return m.deleteErr
}

type fakeViews struct {
	calls []string
	err   error
}

func (f *fakeViews) RecordProjectView(_ context.Context, projectID string) error {
	f.calls = append(f.calls, projectID)
	return f.err
}

type recordingNotifier struct {
	likes    int
	comments int
}

func (r *recordingNotifier) ProjectLiked(context.Context, *models.Project, *auth.Identity) { r.likes++ }
func (r *recordingNotifier) CommentAdded(context.Context, *models.Project, *models.Comment) {
	r.comments++
}

// memNotifications is a live-capable notification store.
type memNotifications struct {
	mu          sync.Mutex
	items       map[uuid.UUID]*models.Notification
	markErr     map[uuid.UUID]error
	subscribers map[int]func()
	nextSub     int
	markCalls   int
	// pushOnMark redelivers the first page after every MarkRead, like the row trigger.
	pushOnMark bool
}

func newMemNotifications() *memNotifications {
	return &memNotifications{
		items:       map[uuid.UUID]*models.Notification{},
		markErr:     map[uuid.UUID]error{},
		subscribers: map[int]func(){},
	}
}

// seed inserts n notifications for user, newest first by index, with the given read flags.
func (m *memNotifications) seed(user uuid.UUID, n int, read func(i int) bool) []*models.Notification {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*models.Notification, 0, n)
	m.mu.Lock()
	for i := 0; i < n; i++ {
		item := &models.Notification{
			ID:        uuid.New(),
			UserID:    user,
			Type:      models.NotificationTypeLike,
			Read:      read(i),
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
		m.items[item.ID] = item
		out = append(out, item)
	}
	m.mu.Unlock()
	return out
}

func (m *memNotifications) ordered(user uuid.UUID) []*models.Notification {
	out := []*models.Notification{}
	for _, n := range m.items {
		if n.UserID == user {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *memNotifications) firstPage(user uuid.UUID, size int) []*models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.ordered(user)
	if len(all) > size {
		all = all[:size]
	}
	return all
}

func (m *memNotifications) Subscribe(_ context.Context, user uuid.UUID, size int, onPage func([]*models.Notification), _ func(error)) (func(), error) {
	onPage(m.firstPage(user, size))

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = func() { onPage(m.firstPage(user, size)) }
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}, nil
}

// push redelivers the first page to every live subscriber.
func (m *memNotifications) push() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (m *memNotifications) subscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

func (m *memNotifications) PageAfter(_ context.Context, user uuid.UUID, cursor *models.Notification, size int) ([]*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.ordered(user)
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

func (m *memNotifications) MarkRead(_ context.Context, user, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	m.markCalls++
	if err := m.markErr[id]; err != nil {
		m.mu.Unlock()
		return err
	}
	n, ok := m.items[id]
	if !ok || n.UserID != user {
		m.mu.Unlock()
		return errs.NewNotFoundError("notification not found")
	}
	n.Read = true
	n.ReadAt = &at
	push := m.pushOnMark
	m.mu.Unlock()

	if push {
		m.push()
	}
	return nil
}

// insert adds one unread notification newer than everything seeded.
func (m *memNotifications) insert(user uuid.UUID) *models.Notification {
	item := &models.Notification{
		ID:        uuid.New(),
		UserID:    user,
		Type:      models.NotificationTypeComment,
		CreatedAt: time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC),
	}
	m.mu.Lock()
	m.items[item.ID] = item
	m.mu.Unlock()
	return item
}

type memBookmarks struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*models.Bookmark
	deleteErr error
	updates   int
}

func newMemBookmarks() *memBookmarks {
	return &memBookmarks{items: map[uuid.UUID]*models.Bookmark{}}
}

func (m *memBookmarks) ListByUser(_ context.Context, user uuid.UUID) ([]*models.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Bookmark{}
	for _, b := range m.items {
		if b.UserID == user {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memBookmarks) Add(_ context.Context, b *models.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

func (m *memBookmarks) UpdateSnapshot(_ context.Context, b *models.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

func (m *memBookmarks) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.items, id)
	return nil
}

var errBackend = errors.New("backend unavailable")
