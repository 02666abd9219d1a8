package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rpupo63/projecthub-backend/functions"
	"github.com/rpupo63/projecthub-backend/metrics"
	"github.com/rpupo63/projecthub-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Workspace is the manager set of one signed-in identity. Every manager reads the
// caller from the same Session.
type Workspace struct {
	Session   *auth.Session
	Projects  *services.ProjectManager
	Feed      *services.NotificationFeed
	Bookmarks *services.BookmarkManager
	Profile   *services.ProfileManager

	detach []func()

	// guarded by Workspaces.mu
	lastSeen  time.Time
	expiresAt time.Time
}

// Close releases the live subscription and signs the session out.
func (w *Workspace) Close() {
	w.Feed.Close()
	w.Session.Clear()
	for _, fn := range w.detach {
		fn()
	}
}

// stale reports whether the newest token seen has expired or the workspace sat idle
// for longer than idle. A zero idle disables the idle check.
func (w *Workspace) stale(now time.Time, idle time.Duration) bool {
	if !w.expiresAt.IsZero() && !now.Before(w.expiresAt) {
		return true
	}
	return idle > 0 && now.Sub(w.lastSeen) >= idle
}

// WorkspaceDeps are the adapters shared by every workspace.
type WorkspaceDeps struct {
	Projects      services.ProjectStore
	Comments      services.CommentStore
	Profiles      services.ProfileStore
	Bookmarks     services.BookmarkStore
	Notifications services.NotificationStore
	Blobs         services.BlobStore
	Views         *functions.Views
	Notifier      services.EngagementNotifier
	PageSize      int
	IdleTimeout   time.Duration
}

func (d WorkspaceDeps) build(identity *auth.Identity) *Workspace {
	session := auth.NewSession()
	session.Set(identity)

	ws := &Workspace{
		Session: session,
		Projects: services.NewProjectManager(services.ProjectDeps{
			Projects: d.Projects,
			Comments: d.Comments,
			Profiles: d.Profiles,
			Blobs:    d.Blobs,
			Views:    d.Views.Bind(session),
			Identity: session,
			Notifier: d.Notifier,
		}),
		Feed:      services.NewNotificationFeed(d.Notifications, identity.UID, d.PageSize),
		Bookmarks: services.NewBookmarkManager(d.Bookmarks, d.Projects, d.Profiles, session),
		Profile:   services.NewProfileManager(d.Profiles, d.Blobs, session),
	}
	ws.detach = append(ws.detach, ws.Profile.Attach(session))
	return ws
}

// Workspaces keeps one Workspace per signed-in uid.
type Workspaces struct {
	deps   WorkspaceDeps
	logger zerolog.Logger
	now    func() time.Time

	mu         sync.Mutex
	items      map[uuid.UUID]*Workspace
	stopReaper func()
}

func NewWorkspaces(deps WorkspaceDeps) *Workspaces {
	if deps.PageSize <= 0 {
		deps.PageSize = services.DefaultNotificationPageSize
	}
	return &Workspaces{
		deps:   deps,
		logger: log.With().Str("component", "workspaces").Logger(),
		now:    time.Now,
		items:  make(map[uuid.UUID]*Workspace),
	}
}

// For returns the identity's workspace, creating it on first use. Every call counts
// as activity and extends the expiry to the identity's token.
func (s *Workspaces) For(identity *auth.Identity) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.items[identity.UID]
	if !ok {
		ws = s.deps.build(identity)
		s.items[identity.UID] = ws
		metrics.Get().ActiveFeeds.Set(float64(len(s.items)))
		s.logger.Debug().Str("uid", identity.UID.String()).Msg("workspace opened")
	}
	ws.lastSeen = s.now()
	if identity.ExpiresAt.After(ws.expiresAt) {
		ws.expiresAt = identity.ExpiresAt
	}
	return ws
}

// Touch marks the uid's workspace as active without creating one.
func (s *Workspaces) Touch(uid uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ws, ok := s.items[uid]; ok {
		ws.lastSeen = s.now()
	}
}

// Reap closes every workspace whose token expired or that sat idle past the idle
// timeout, and returns how many it closed.
func (s *Workspaces) Reap(now time.Time) int {
	s.mu.Lock()
	stale := make(map[uuid.UUID]*Workspace)
	for uid, ws := range s.items {
		if ws.stale(now, s.deps.IdleTimeout) {
			stale[uid] = ws
			delete(s.items, uid)
		}
	}
	metrics.Get().ActiveFeeds.Set(float64(len(s.items)))
	s.mu.Unlock()

	for uid, ws := range stale {
		ws.Close()
		s.logger.Debug().Str("uid", uid.String()).Msg("workspace reaped")
	}
	return len(stale)
}

// StartReaper runs Reap every interval until StopReaper. It is a no-op when already
// running or when interval is not positive.
func (s *Workspaces) StartReaper(interval time.Duration) {
	s.mu.Lock()
	if s.stopReaper != nil || interval <= 0 {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.stopReaper = func() {
		cancel()
		<-done
	}
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Reap(s.now()); n > 0 {
					s.logger.Info().Int("closed", n).Msg("reaped stale workspaces")
				}
			}
		}
	}()
}

func (s *Workspaces) StopReaper() {
	s.mu.Lock()
	stop := s.stopReaper
	s.stopReaper = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Close tears down the uid's workspace, if any.
func (s *Workspaces) Close(uid uuid.UUID) {
	s.mu.Lock()
	ws, ok := s.items[uid]
	delete(s.items, uid)
	metrics.Get().ActiveFeeds.Set(float64(len(s.items)))
	s.mu.Unlock()

	if ok {
		ws.Close()
		s.logger.Debug().Str("uid", uid.String()).Msg("workspace closed")
	}
}

func (s *Workspaces) CloseAll() {
	s.mu.Lock()
	items := s.items
	s.items = make(map[uuid.UUID]*Workspace)
	metrics.Get().ActiveFeeds.Set(0)
	s.mu.Unlock()

	for _, ws := range items {
		ws.Close()
	}
}

func (s *Workspaces) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
