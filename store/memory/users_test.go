package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/store"
)

func TestUsers_CreateAndLookup(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	u := &models.User{ID: "uid-1", Username: "alice", DisplayName: "Alice"}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.Equal(t, clk.Now(), u.CreatedAt)

	got, err := s.GetUser(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	got, err = s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", got.ID)

	_, err = s.GetUser(ctx, "uid-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_Conflicts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "uid-1", Username: "alice", DisplayName: "Alice"}))

	err := s.CreateUser(ctx, &models.User{ID: "uid-1", Username: "alice2", DisplayName: "x"})
	assert.ErrorIs(t, err, store.ErrUserExists)

	err = s.CreateUser(ctx, &models.User{ID: "uid-2", Username: "alice", DisplayName: "x"})
	assert.ErrorIs(t, err, store.ErrUsernameTaken)
}

func TestUsers_Update(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "uid-1", Username: "alice", DisplayName: "Alice"}))

	clk.Advance(time.Hour)
	name, photo := "Alice L.", "https://cdn.test/a.jpg"
	u, err := s.UpdateUser(ctx, "uid-1", models.ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", u.DisplayName)
	assert.Empty(t, u.PhotoURL)
	assert.Equal(t, clk.Now(), u.UpdatedAt)

	u, err = s.UpdateUser(ctx, "uid-1", models.ProfileUpdate{PhotoURL: &photo})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", u.DisplayName)
	assert.Equal(t, photo, u.PhotoURL)
	assert.Equal(t, "alice", u.Username)

	_, err = s.UpdateUser(ctx, "nobody", models.ProfileUpdate{DisplayName: &name})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_SearchRanksPrefixMatches(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for _, u := range []models.User{
		{ID: "1", Username: "malina", DisplayName: "Malina"},
		{ID: "2", Username: "lina", DisplayName: "Lina"},
		{ID: "3", Username: "linnea", DisplayName: "Linnea"},
		{ID: "4", Username: "bob", DisplayName: "Bob"},
	} {
		u := u
		require.NoError(t, s.CreateUser(ctx, &u))
	}

	got, err := s.SearchUsers(ctx, "LIN", 10)
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, u := range got {
		names[i] = u.Username
	}
	assert.Equal(t, []string{"lina", "linnea", "malina"}, names)

	got, err = s.SearchUsers(ctx, "lin", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "lina", got[0].Username)
}
