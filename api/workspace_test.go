package api

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rpupo63/projecthub-backend/functions"
	"github.com/rpupo63/projecthub-backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestWorkspaces(s *store, idle time.Duration) *Workspaces {
	return NewWorkspaces(WorkspaceDeps{
		Projects:      projectStore{s},
		Comments:      commentStore{s},
		Profiles:      profileStore{s},
		Bookmarks:     bookmarkStore{s},
		Notifications: notificationStore{s},
		Blobs:         blobStore{s},
		Views:         functions.NewViews(projectStore{s}, nil),
		Notifier:      functions.NewEngagement(notificationStore{s}, profileStore{s}, nil),
		IdleTimeout:   idle,
	})
}

func TestReapClosesExpiredAndIdleWorkspaces(t *testing.T) {
	s := newStore()
	ns := notificationStore{s}
	workspaces := newTestWorkspaces(s, time.Hour)
	defer workspaces.CloseAll()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	workspaces.now = func() time.Time { return now }

	expiring := &auth.Identity{UID: uuid.New(), Email: "a@example.com", ExpiresAt: now.Add(time.Minute)}
	lasting := &auth.Identity{UID: uuid.New(), Email: "b@example.com", ExpiresAt: now.Add(24 * time.Hour)}
	expiringWS := workspaces.For(expiring)
	require.NoError(t, expiringWS.Feed.Subscribe(context.Background()))
	require.NoError(t, workspaces.For(lasting).Feed.Subscribe(context.Background()))
	require.Equal(t, 2, ns.subscriberCount())

	assert.Zero(t, workspaces.Reap(now))

	assert.Equal(t, 1, workspaces.Reap(now.Add(time.Minute)))
	assert.Equal(t, 1, workspaces.Len())
	assert.Equal(t, 1, ns.subscriberCount())
	assert.Equal(t, services.FeedClosed, expiringWS.Feed.State())
	assert.Nil(t, expiringWS.Session.Current())

	now = now.Add(30 * time.Minute)
	workspaces.Touch(lasting.UID)
	assert.Zero(t, workspaces.Reap(now.Add(59*time.Minute)))

	assert.Equal(t, 1, workspaces.Reap(now.Add(time.Hour)))
	assert.Zero(t, workspaces.Len())
	assert.Zero(t, ns.subscriberCount())
}

func TestForExtendsExpiryWithNewerToken(t *testing.T) {
	workspaces := newTestWorkspaces(newStore(), 0)
	defer workspaces.CloseAll()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	uid := uuid.New()
	first := workspaces.For(&auth.Identity{UID: uid, ExpiresAt: now.Add(time.Minute)})
	second := workspaces.For(&auth.Identity{UID: uid, ExpiresAt: now.Add(time.Hour)})
	workspaces.For(&auth.Identity{UID: uid, ExpiresAt: now.Add(2 * time.Minute)})
	assert.Same(t, first, second)

	assert.Zero(t, workspaces.Reap(now.Add(30*time.Minute)))
	assert.Equal(t, 1, workspaces.Reap(now.Add(time.Hour)))
}

func TestReaperStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newStore()
	workspaces := newTestWorkspaces(s, time.Millisecond)
	defer workspaces.CloseAll()

	require.NoError(t, workspaces.For(&auth.Identity{UID: uuid.New()}).Feed.Subscribe(context.Background()))
	workspaces.StartReaper(5 * time.Millisecond)
	workspaces.StartReaper(5 * time.Millisecond)

	assert.Eventually(t, func() bool { return workspaces.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, notificationStore{s}.subscriberCount())

	workspaces.StopReaper()
	workspaces.StopReaper()
}
