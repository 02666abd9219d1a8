package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rpupo63/projecthub-backend/errs"
	"github.com/rpupo63/projecthub-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFollowsSession(t *testing.T) {
	uid := uuid.New()
	profiles := newMemProfiles(&models.UserProfile{UID: uid, Name: "Ann"})
	session := auth.NewSession()
	m := NewProfileManager(profiles, &memBlobs{}, session)
	detach := m.Attach(session)
	defer detach()

	assert.Nil(t, m.Profile())
	session.Set(&auth.Identity{UID: uid})
	require.NotNil(t, m.Profile())
	assert.Equal(t, "Ann", m.Profile().Name)

	session.Clear()
	assert.Nil(t, m.Profile())
}

func TestUpdateProfilePhoto(t *testing.T) {
	uid := uuid.New()
	oldPhoto := "https://blobs.test/v0/b/app/o/profile-photos%2F" + uid.String() + "%2Fold.png?alt=media"
	profiles := newMemProfiles(&models.UserProfile{UID: uid, Name: "Ann", PhotoURL: &oldPhoto})
	blobs := &memBlobs{}
	m := NewProfileManager(profiles, blobs, signedIn(uid, "ann@x.io", "Ann"))

	name, bio := " Annie ", "hello"
	updated, err := m.UpdateProfile(context.Background(), ProfileUpdate{
		Name:  &name,
		Bio:   &bio,
		Photo: &Upload{Filename: "me.PNG", Data: pngBytes},
	})
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.Name)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "hello", *updated.Bio)

	want := "profile-photos/" + uid.String() + "/" + uid.String() + ".png"
	assert.Equal(t, []string{
		"delete:profile-photos/" + uid.String() + "/old.png",
		"upload:" + want,
	}, blobs.log)
	assert.Contains(t, *updated.PhotoURL, "profile-photos%2F")
	assert.Equal(t, "Annie", m.Profile().Name)
}

func TestUpdateProfileValidation(t *testing.T) {
	uid := uuid.New()
	m := NewProfileManager(newMemProfiles(&models.UserProfile{UID: uid}), &memBlobs{}, signedIn(uid, "a@b.c", ""))
	empty := " "
	_, err := m.UpdateProfile(context.Background(), ProfileUpdate{Name: &empty})
	assert.True(t, errs.IsInvalidInput(err))

	_, err = m.UpdateProfile(context.Background(), ProfileUpdate{Photo: &Upload{Filename: "x.png", Data: []byte("nope")}})
	assert.True(t, errs.IsInvalidInput(err))

	anon := NewProfileManager(newMemProfiles(), &memBlobs{}, auth.NewSession())
	_, err = anon.UpdateProfile(context.Background(), ProfileUpdate{})
	assert.True(t, errs.IsUnauthenticated(err))
}

func TestUpdateEmailNotifications(t *testing.T) {
	uid := uuid.New()
	profiles := newMemProfiles(&models.UserProfile{UID: uid})
	m := NewProfileManager(profiles, &memBlobs{}, signedIn(uid, "a@b.c", ""))
	_, err := m.Resolve(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.UpdateEmailNotifications(context.Background(), true))
	assert.True(t, profiles.byUID[uid].EmailNotifications)
	assert.True(t, m.Profile().EmailNotifications)
}
