package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func allUnread(int) bool { return false }

func TestFeedPagination(t *testing.T) {
	defer goleak.VerifyNone(t)

	user := uuid.New()
	store := newMemNotifications()
	store.seed(user, 25, allUnread)
	feed := NewNotificationFeed(store, user, 0)
	defer feed.Close()
	ctx := context.Background()

	require.NoError(t, feed.Subscribe(ctx))
	assert.Equal(t, FeedListening, feed.State())
	snap := feed.Snapshot()
	assert.Len(t, snap.Items, 10)
	assert.True(t, snap.HasMore)
	assert.Equal(t, 10, snap.UnreadCount)

	require.NoError(t, feed.LoadMore(ctx))
	snap = feed.Snapshot()
	assert.Len(t, snap.Items, 20)
	assert.True(t, snap.HasMore)

	require.NoError(t, feed.LoadMore(ctx))
	snap = feed.Snapshot()
	assert.Len(t, snap.Items, 25)
	assert.False(t, snap.HasMore)

	require.NoError(t, feed.LoadMore(ctx))
	assert.Equal(t, snap, feed.Snapshot())

	seen := map[uuid.UUID]bool{}
	for i, n := range snap.Items {
		assert.False(t, seen[n.ID], "duplicate at %d", i)
		seen[n.ID] = true
		if i > 0 {
			assert.False(t, n.CreatedAt.After(snap.Items[i-1].CreatedAt))
		}
	}
}

func TestFeedSubscribeIsIdempotent(t *testing.T) {
	user := uuid.New()
	store := newMemNotifications()
	feed := NewNotificationFeed(store, user, 10)
	defer feed.Close()

	require.NoError(t, feed.Subscribe(context.Background()))
	require.NoError(t, feed.Subscribe(context.Background()))
	assert.Equal(t, 1, store.subscriberCount())
	assert.False(t, feed.Snapshot().HasMore)
}

func TestFeedLiveUpdateReplacesFirstPage(t *testing.T) {
	user := uuid.New()
	store := newMemNotifications()
	store.seed(user, 12, allUnread)
	feed := NewNotificationFeed(store, user, 10)
	defer feed.Close()

	require.NoError(t, feed.Subscribe(context.Background()))
	fresh := store.insert(user)
	store.push()

	snap := feed.Snapshot()
	require.Len(t, snap.Items, 10)
	assert.Equal(t, fresh.ID, snap.Items[0].ID)
	assert.True(t, snap.HasMore)
	assert.Equal(t, 10, snap.UnreadCount)
}

func TestFeedLiveUpdateKeepsLoadedPages(t *testing.T) {
	user := uuid.New()
	store := newMemNotifications()
	seeded := store.seed(user, 15, allUnread)
	feed := NewNotificationFeed(store, user, 10)
	defer feed.Close()
	ctx := context.Background()

	var pushed []FeedSnapshot
	feed.OnChange(func(s FeedSnapshot) { pushed = append(pushed, s) })

	require.NoError(t, feed.Subscribe(ctx))
	require.NoError(t, feed.LoadMore(ctx))
	require.Len(t, feed.Snapshot().Items, 15)

	store.push()
	snap := feed.Snapshot()
	assert.Len(t, snap.Items, 15)
	assert.False(t, snap.HasMore)
	assert.Len(t, pushed, 3)

	// The item pushed out of the first page stays in place, so there is no gap.
	fresh := store.insert(user)
	store.push()
	snap = feed.Snapshot()
	require.Len(t, snap.Items, 16)
	assert.Equal(t, fresh.ID, snap.Items[0].ID)
	assert.Equal(t, seeded[9].ID, snap.Items[10].ID)
	assert.Equal(t, seeded[14].ID, snap.Items[15].ID)
	assert.Equal(t, 16, snap.UnreadCount)
}

func TestMarkAsReadOnLoadedPageKeepsList(t *testing.T) {
	defer goleak.VerifyNone(t)

	user := uuid.New()
	store := newMemNotifications()
	store.pushOnMark = true
	seeded := store.seed(user, 25, allUnread)
	feed := NewNotificationFeed(store, user, 10)
	defer feed.Close()
	ctx := context.Background()

	require.NoError(t, feed.Subscribe(ctx))
	require.NoError(t, feed.LoadMore(ctx))
	require.Len(t, feed.Snapshot().Items, 20)

	require.NoError(t, feed.MarkAsRead(ctx, seeded[15].ID))
	snap := feed.Snapshot()
	require.Len(t, snap.Items, 20)
	assert.True(t, snap.Items[15].Read)
	assert.Equal(t, 19, snap.UnreadCount)
	assert.True(t, snap.HasMore)

	require.NoError(t, feed.MarkAsRead(ctx, seeded[3].ID))
	snap = feed.Snapshot()
	require.Len(t, snap.Items, 20)
	assert.True(t, snap.Items[3].Read)
	assert.Equal(t, 18, snap.UnreadCount)

	require.NoError(t, feed.MarkAllAsRead(ctx))
	snap = feed.Snapshot()
	assert.Len(t, snap.Items, 20)
	assert.Equal(t, 0, snap.UnreadCount)
	assert.True(t, snap.HasMore)

	require.NoError(t, feed.LoadMore(ctx))
	snap = feed.Snapshot()
	assert.Len(t, snap.Items, 25)
	assert.Equal(t, 5, snap.UnreadCount)
	assert.False(t, snap.HasMore)
}

func TestMarkAsReadAlreadyRead(t *testing.T) {
	user := uuid.New()
	store := newMemNotifications()
	items := store.seed(user, 3, func(i int) bool { return i == 0 })
	feed := NewNotificationFeed(store, user, 10)
	defer feed.Close()
	ctx := context.Background()
	require.NoError(t, feed.Subscribe(ctx))
	require.Equal(t, 2, feed.Snapshot().UnreadCount)

	require.NoError(t, feed.MarkAsRead(ctx, items[0].ID))
	assert.Equal(t, 2, feed.Snapshot().UnreadCount)

	require.NoError(t, feed.MarkAsRead(ctx, items[1].ID))
	require.NoError(t, feed.MarkAsRead(ctx, items[1].ID))
	assert.Equal(t, 1, feed.Snapshot().UnreadCount)

	require.NoError(t, feed.MarkAsRead(ctx, items[2].ID))
	require.NoError(t, feed.MarkAsRead(ctx, items[2].ID))
	snap := feed.Snapshot()
	assert.Equal(t, 0, snap.UnreadCount)
	for _, n := range snap.Items {
		assert.True(t, n.Read)
	}
	assert.NotNil(t, snap.Items[1].ReadAt)
}

func TestMarkAsReadFailureLeavesItem(t *testing.T) {
	user := uuid.New()
	store := newMemNotifications()
	items := store.seed(user, 1, allUnread)
	store.markErr[items[0].ID] = errs.NewPermissionDeniedError("denied")
	feed := NewNotificationFeed(store, user, 10)
	defer feed.Close()
	require.NoError(t, feed.Subscribe(context.Background()))

	err := feed.MarkAsRead(context.Background(), items[0].ID)
	assert.True(t, errs.IsPermissionDenied(err))
	assert.Equal(t, 1, feed.Snapshot().UnreadCount)
}

func TestMarkAllAsRead(t *testing.T) {
	defer goleak.VerifyNone(t)

	user := uuid.New()
	store := newMemNotifications()
	items := store.seed(user, 6, func(i int) bool { return i%3 == 0 })
	feed := NewNotificationFeed(store, user, 10)
	defer feed.Close()
	ctx := context.Background()
	require.NoError(t, feed.Subscribe(ctx))
	require.Equal(t, 4, feed.Snapshot().UnreadCount)

	store.markErr[items[1].ID] = errBackend
	err := feed.MarkAllAsRead(ctx)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, 4, store.markCalls)
	assert.Equal(t, 1, feed.Snapshot().UnreadCount)

	delete(store.markErr, items[1].ID)
	require.NoError(t, feed.MarkAllAsRead(ctx))
	assert.Equal(t, 0, feed.Snapshot().UnreadCount)
}

func TestFeedCloseReleasesSubscription(t *testing.T) {
	defer goleak.VerifyNone(t)

	user := uuid.New()
	store := newMemNotifications()
	items := store.seed(user, 12, allUnread)
	feed := NewNotificationFeed(store, user, 10)
	require.NoError(t, feed.Subscribe(context.Background()))
	require.Equal(t, 1, store.subscriberCount())

	before := feed.Snapshot()
	feed.Close()
	feed.Close()
	assert.Equal(t, 0, store.subscriberCount())
	assert.Equal(t, FeedClosed, feed.State())

	store.mu.Lock()
	store.items[items[0].ID].Read = true
	store.mu.Unlock()
	store.push()
	assert.Equal(t, before, feed.Snapshot())

	assert.ErrorIs(t, feed.MarkAsRead(context.Background(), items[0].ID), ErrFeedClosed)
	assert.ErrorIs(t, feed.MarkAllAsRead(context.Background()), ErrFeedClosed)
	assert.ErrorIs(t, feed.Subscribe(context.Background()), ErrFeedClosed)
	assert.NoError(t, feed.LoadMore(context.Background()))
	assert.Equal(t, before, feed.Snapshot())
}

func TestLoadMoreBeforeSubscribeIsNoop(t *testing.T) {
	store := newMemNotifications()
	feed := NewNotificationFeed(store, uuid.New(), 10)
	require.NoError(t, feed.LoadMore(context.Background()))
	assert.Equal(t, FeedIdle, feed.State())
	assert.Empty(t, feed.Snapshot().Items)
}
