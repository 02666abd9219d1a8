package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const DefaultNotificationPageSize = 10

var ErrFeedClosed = errors.New("notification feed closed")

type FeedState int

const (
	FeedIdle FeedState = iota
	FeedListening
	FeedClosed
)

func (s FeedState) String() string {
	switch s {
	case FeedIdle:
		return "idle"
	case FeedListening:
		return "listening"
	case FeedClosed:
		return "closed"
	}
	return "unknown"
}

// FeedSnapshot is a copy of the visible feed.
type FeedSnapshot struct {
	Items       []models.Notification `json:"items"`
	UnreadCount int                   `json:"unreadCount"`
	HasMore     bool                  `json:"hasMore"`
}

// NotificationFeed keeps a paginated, live view of one user's notifications.
//
// A live update replaces the first page. Items appended by LoadMore that sort after
// the new first page are kept, along with the cursor and hasMore they set.
type NotificationFeed struct {
	store    NotificationStore
	userID   uuid.UUID
	pageSize int
	logger   zerolog.Logger
	now      func() time.Time

	mu          sync.Mutex
	state       FeedState
	subscribing bool
	loading     bool
	generation  uint64
	items       []*models.Notification
	unread      int
	cursor      *models.Notification
	hasMore     bool
	lastErr     error
	unsubscribe func()
	nextID      uint64
	listeners   map[uint64]func(FeedSnapshot)
}

func NewNotificationFeed(store NotificationStore, userID uuid.UUID, pageSize int) *NotificationFeed {
	if pageSize <= 0 {
		pageSize = DefaultNotificationPageSize
	}
	return &NotificationFeed{
		store:     store,
		userID:    userID,
		pageSize:  pageSize,
		logger:    log.With().Str("component", "notificationFeed").Str("uid", userID.String()).Logger(),
		now:       time.Now,
		listeners: make(map[uint64]func(FeedSnapshot)),
	}
}

// Subscribe opens the live subscription. It is a no-op while already listening.
func (f *NotificationFeed) Subscribe(ctx context.Context) error {
	f.mu.Lock()
	switch {
	case f.state == FeedClosed:
		f.mu.Unlock()
		return ErrFeedClosed
	case f.state == FeedListening || f.subscribing:
		f.mu.Unlock()
		return nil
	}
	f.subscribing = true
	f.mu.Unlock()

	// The store delivers the first page synchronously, so the lock is not held here.
	unsubscribe, err := f.store.Subscribe(ctx, f.userID, f.pageSize, f.applyPage, f.reportError)

	f.mu.Lock()
	f.subscribing = false
	if err != nil {
		f.mu.Unlock()
		f.logger.Error().Err(err).Msg("error subscribing to notifications")
		return err
	}
	if f.state == FeedClosed {
		f.mu.Unlock()
		unsubscribe()
		return ErrFeedClosed
	}
	f.state = FeedListening
	f.unsubscribe = unsubscribe
	f.mu.Unlock()
	return nil
}

func (f *NotificationFeed) applyPage(page []*models.Notification) {
	f.mu.Lock()
	if f.state == FeedClosed {
		f.mu.Unlock()
		return
	}
	items := cloneNotifications(page)
	hasMore := len(page) == f.pageSize
	tail := 0
	if last := lastNotification(items); last != nil && hasMore && len(f.items) > f.pageSize {
		inPage := make(map[uuid.UUID]struct{}, len(items))
		for _, n := range items {
			inPage[n.ID] = struct{}{}
		}
		for _, n := range f.items {
			if _, dup := inPage[n.ID]; !dup && orderedAfter(n, last) {
				items = append(items, n)
				tail++
			}
		}
		if tail > 0 {
			hasMore = f.hasMore
		}
	}
	// An in-flight LoadMore is only stale when the loaded tail was dropped.
	if tail == 0 {
		f.generation++
	}
	f.items = items
	f.unread = countUnread(f.items)
	f.cursor = lastNotification(f.items)
	f.hasMore = hasMore
	f.lastErr = nil
	snap, fns := f.snapshotLocked(), f.listenersLocked()
	f.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (f *NotificationFeed) reportError(err error) {
	f.logger.Error().Err(err).Msg("live notification update failed")
	f.mu.Lock()
	f.lastErr = err
	f.mu.Unlock()
}

// LoadMore appends the page after the cursor. It does nothing unless the feed is
// listening and has more items.
func (f *NotificationFeed) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if f.state != FeedListening || !f.hasMore || f.cursor == nil || f.loading {
		f.mu.Unlock()
		return nil
	}
	f.loading = true
	cursor := *f.cursor
	gen := f.generation
	f.mu.Unlock()

	page, err := f.store.PageAfter(ctx, f.userID, &cursor, f.pageSize)

	f.mu.Lock()
	f.loading = false
	if err != nil {
		f.mu.Unlock()
		f.logger.Error().Err(err).Msg("error loading more notifications")
		return err
	}
	if f.state == FeedClosed || gen != f.generation {
		f.mu.Unlock()
		return nil
	}

	seen := make(map[uuid.UUID]struct{}, len(f.items))
	for _, n := range f.items {
		seen[n.ID] = struct{}{}
	}
	for _, n := range cloneNotifications(page) {
		if _, dup := seen[n.ID]; !dup {
			f.items = append(f.items, n)
		}
	}
	if last := lastNotification(page); last != nil {
		f.cursor = last
	}
	f.hasMore = len(page) == f.pageSize
	f.unread = countUnread(f.items)
	snap, fns := f.snapshotLocked(), f.listenersLocked()
	f.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
	return nil
}

// MarkAsRead persists read=true and then updates the local item. unreadCount only
// drops when the local item was unread.
func (f *NotificationFeed) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	closed := f.state == FeedClosed
	f.mu.Unlock()
	if closed {
		return ErrFeedClosed
	}

	at := f.now()
	if err := f.store.MarkRead(ctx, f.userID, id, at); err != nil {
		f.logger.Error().Err(err).Str("notificationId", id.String()).Msg("error marking notification as read")
		return err
	}

	f.mu.Lock()
	if f.state == FeedClosed {
		f.mu.Unlock()
		return nil
	}
	changed := false
	for _, n := range f.items {
		if n.ID == id && !n.Read {
			n.Read = true
			readAt := at
			n.ReadAt = &readAt
			f.unread = max(0, f.unread-1)
			changed = true
		}
	}
	var (
		snap FeedSnapshot
		fns  []func(FeedSnapshot)
	)
	if changed {
		snap, fns = f.snapshotLocked(), f.listenersLocked()
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
	return nil
}

// MarkAllAsRead marks every visible unread item concurrently and returns the first
// failure. Items that succeeded stay read.
func (f *NotificationFeed) MarkAllAsRead(ctx context.Context) error {
	f.mu.Lock()
	if f.state == FeedClosed {
		f.mu.Unlock()
		return ErrFeedClosed
	}
	var ids []uuid.UUID
	for _, n := range f.items {
		if !n.Read {
			ids = append(ids, n.ID)
		}
	}
	f.mu.Unlock()

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			return f.MarkAsRead(ctx, id)
		})
	}
	return g.Wait()
}

// Close releases the live subscription. The feed ignores all updates afterwards.
func (f *NotificationFeed) Close() {
	f.mu.Lock()
	if f.state == FeedClosed {
		f.mu.Unlock()
		return
	}
	f.state = FeedClosed
	unsubscribe := f.unsubscribe
	f.unsubscribe = nil
	f.listeners = make(map[uint64]func(FeedSnapshot))
	f.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// OnChange registers fn for every feed change and returns its removal func.
func (f *NotificationFeed) OnChange(fn func(FeedSnapshot)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *NotificationFeed) Snapshot() FeedSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *NotificationFeed) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the last live-update failure, cleared by the next successful update.
func (f *NotificationFeed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *NotificationFeed) snapshotLocked() FeedSnapshot {
	items := make([]models.Notification, 0, len(f.items))
	for _, n := range f.items {
		items = append(items, *n)
	}
	return FeedSnapshot{Items: items, UnreadCount: f.unread, HasMore: f.hasMore}
}

func (f *NotificationFeed) listenersLocked() []func(FeedSnapshot) {
	fns := make([]func(FeedSnapshot), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func cloneNotifications(in []*models.Notification) []*models.Notification {
	out := make([]*models.Notification, 0, len(in))
	for _, n := range in {
		cp := *n
		out = append(out, &cp)
	}
	return out
}

func countUnread(items []*models.Notification) int {
	n := 0
	for _, item := range items {
		if !item.Read {
			n++
		}
	}
	return n
}

// orderedAfter reports whether n sorts after ref in (createdAt, id) descending order.
func orderedAfter(n, ref *models.Notification) bool {
	if n.CreatedAt.Equal(ref.CreatedAt) {
		return n.ID.String() < ref.ID.String()
	}
	return n.CreatedAt.Before(ref.CreatedAt)
}

func lastNotification(items []*models.Notification) *models.Notification {
	if len(items) == 0 {
		return nil
	}
	cp := *items[len(items)-1]
	return &cp
}
