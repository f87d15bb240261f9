package profiles

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterboxer.com/project-spoque/clock/clocktest"
	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/store"
	"masterboxer.com/project-spoque/store/memory"
)

type failingBlobs struct{}

func (failingBlobs) PutBlob(ctx context.Context, key, contentType string, data []byte) (string, error) {
	return "", errors.New("bucket unavailable")
}

func newTestService(t *testing.T) (*Service, *memory.Store, *memory.Blobs) {
	t.Helper()
	clk := clocktest.New(time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC))
	mem := memory.New(clk)
	blobs := memory.NewBlobs()
	return NewService(mem, blobs, clk), mem, blobs
}

func TestRegister(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "uid-1", "  Alice ", "", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice", u.DisplayName)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = svc.Register(ctx, "uid-2", "ALICE", "Other", "")
	assert.ErrorIs(t, err, store.ErrUsernameTaken)

	_, err = svc.Register(ctx, "uid-1", "alice2", "", "")
	assert.ErrorIs(t, err, store.ErrUserExists)

	got, err := svc.ByUsername(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", got.ID)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"", "ab", "has space", "émile", strings.Repeat("a", 31)} {
		_, err := svc.Register(ctx, "uid-1", name, "", "")
		assert.ErrorIs(t, err, models.ErrValidation, "username %q", name)
	}

	_, err := svc.Register(ctx, "uid-1", "alice", strings.Repeat("x", 51), "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Register(ctx, "", "alice", "", "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEnsure_ProvisionsFromIdentity(t *testing.T) {
	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Ensure(ctx, "uid-1", "Bob", "https://pics.test/bob.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, "https://pics.test/bob.jpg", u.PhotoURL)

	// later calls return the stored profile, not the identity
	u, err = svc.Ensure(ctx, "uid-1", "something-else", "", "")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)

	stored, err := mem.GetUser(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "bob", stored.Username)
}

func TestEnsure_RequiresRegistration(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ensure(ctx, "uid-1", "Alice Smith", "", "")
	assert.ErrorIs(t, err, ErrProfileRequired)

	_, err = svc.Register(ctx, "uid-2", "carol", "", "")
	require.NoError(t, err)
	_, err = svc.Ensure(ctx, "uid-3", "carol", "", "")
	assert.ErrorIs(t, err, ErrProfileRequired)
}

func TestUpdate_DisplayNameAndPhoto(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "uid-1", "alice", "", "")
	require.NoError(t, err)

	name := "  Alice L. "
	u, err := svc.Update(ctx, "uid-1", &name, &Photo{Data: []byte("jpeg"), ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", u.DisplayName)
	assert.Equal(t, "mem://profiles/uid-1/avatar-1717230600000", u.PhotoURL)

	blob, ok := blobs.Get("profiles/uid-1/avatar-1717230600000")
	require.True(t, ok)
	assert.Equal(t, "jpeg", string(blob.Data))
	assert.Equal(t, "image/jpeg", blob.ContentType)
}

func TestUpdate_Rejections(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "uid-1", "alice", "", "")
	require.NoError(t, err)

	_, err = svc.Update(ctx, "uid-1", nil, nil)
	assert.ErrorIs(t, err, models.ErrValidation)

	blank := "   "
	_, err = svc.Update(ctx, "uid-1", &blank, nil)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Update(ctx, "uid-1", nil, &Photo{Data: []byte("%PDF"), ContentType: "application/pdf"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Update(ctx, "uid-1", nil, &Photo{Data: make([]byte, MaxPhotoBytes+1), ContentType: "image/png"})
	assert.ErrorIs(t, err, models.ErrValidation)

	name := "Ghost"
	_, err = svc.Update(ctx, "nobody", &name, &Photo{Data: []byte("png"), ContentType: "image/png"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, blobs.Len(), "no blob is stored for a missing profile")
}

func TestUpdate_PhotoFailureLeavesProfile(t *testing.T) {
	clk := clocktest.New(time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC))
	mem := memory.New(clk)
	svc := NewService(mem, failingBlobs{}, clk)
	ctx := context.Background()
	_, err := svc.Register(ctx, "uid-1", "alice", "", "")
	require.NoError(t, err)

	name := "New Name"
	_, err = svc.Update(ctx, "uid-1", &name, &Photo{Data: []byte("png"), ContentType: "image/png"})
	require.Error(t, err)

	u, err := svc.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.DisplayName)
	assert.Empty(t, u.PhotoURL)
}

func TestSearch(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	for _, name := range []string{"alice", "malice", "bob"} {
		_, err := svc.Register(ctx, "uid-"+name, name, "", "")
		require.NoError(t, err)
	}

	_, err := svc.Search(ctx, "  ")
	assert.ErrorIs(t, err, models.ErrValidation)

	found, err := svc.Search(ctx, "ali")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "alice", found[0].Username)

	found, err = svc.Search(ctx, "ali"+strings.Repeat("z", 60))
	require.NoError(t, err)
	assert.Empty(t, found)
}
