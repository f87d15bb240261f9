package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterboxer.com/project-spoque/clock/clocktest"
	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/store"
)

func newTestStore(t *testing.T) (*Store, *clocktest.Clock) {
	t.Helper()
	clk := clocktest.New(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	return New(clk), clk
}

func TestStore_PromptOverwrite(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetPrompt(ctx, "2024-06-01")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.PutPrompt(ctx, &models.DailyPrompt{Date: "2024-06-01", Text: "first", CreatedBy: "admin"}))
	require.NoError(t, s.PutPrompt(ctx, &models.DailyPrompt{Date: "2024-06-01", Text: "second", CreatedBy: "admin"}))

	p, err := s.GetPrompt(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", p.ID)
	assert.Equal(t, "second", p.Text)
}

func TestStore_CreatePost_OnePerAuthorPerDay(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, &models.Post{AuthorID: "alice", Date: "2024-06-01", LikeCount: 7})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.CreatePost(ctx, &models.Post{AuthorID: "alice", Date: "2024-06-01"})
	assert.ErrorIs(t, err, store.ErrDuplicatePost)

	_, err = s.CreatePost(ctx, &models.Post{AuthorID: "alice", Date: "2024-06-02"})
	assert.NoError(t, err)

	p, err := s.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, p.LikeCount)
	assert.Equal(t, 0, p.LikedBy.Len())
}

func TestStore_CreatePost_ConcurrentSameDay(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CreatePost(ctx, &models.Post{AuthorID: "alice", Date: "2024-06-01"}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestStore_ListPostsByDate_NewestFirst(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	first, _ := s.CreatePost(ctx, &models.Post{AuthorID: "a", Date: "2024-06-01"})
	clk.Advance(time.Minute)
	second, _ := s.CreatePost(ctx, &models.Post{AuthorID: "b", Date: "2024-06-01"})
	// same timestamp as second: arrival order decides
	third, _ := s.CreatePost(ctx, &models.Post{AuthorID: "c", Date: "2024-06-01"})
	_, _ = s.CreatePost(ctx, &models.Post{AuthorID: "a", Date: "2024-05-31"})

	posts, err := s.ListPostsByDate(ctx, "2024-06-01")
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{third, second, first}, []string{posts[0].ID, posts[1].ID, posts[2].ID})

	byAuthor, err := s.ListPostsByAuthor(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)
}

func TestStore_ListReturnsSnapshots(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, _ := s.CreatePost(ctx, &models.Post{AuthorID: "a", Date: "2024-06-01"})
	posts, _ := s.ListPostsByDate(ctx, "2024-06-01")

	require.NoError(t, s.ApplyLike(ctx, id, "bob", true))
	assert.Equal(t, 0, posts[0].LikeCount)
	assert.False(t, posts[0].LikedBy.Has("bob"))
}

func TestStore_ApplyLike(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, _ := s.CreatePost(ctx, &models.Post{AuthorID: "a", Date: "2024-06-01"})

	require.NoError(t, s.ApplyLike(ctx, id, "bob", true))
	p, _ := s.GetPost(ctx, id)
	assert.Equal(t, 1, p.LikeCount)
	assert.True(t, p.LikedBy.Has("bob"))

	require.NoError(t, s.ApplyLike(ctx, id, "bob", false))
	p, _ = s.GetPost(ctx, id)
	assert.Equal(t, 0, p.LikeCount)
	assert.False(t, p.LikedBy.Has("bob"))

	assert.ErrorIs(t, s.ApplyLike(ctx, "missing", "bob", true), store.ErrNotFound)
}

func TestStore_ApplyLike_StaleDirectionDrifts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id, _ := s.CreatePost(ctx, &models.Post{AuthorID: "a", Date: "2024-06-01"})

	// a caller that believes it has not liked yet, twice
	require.NoError(t, s.ApplyLike(ctx, id, "bob", true))
	require.NoError(t, s.ApplyLike(ctx, id, "bob", true))

	p, _ := s.GetPost(ctx, id)
	assert.Equal(t, 2, p.LikeCount)
	assert.Equal(t, 1, p.LikedBy.Len())
}

func TestStore_ApplyLike_UnlikeNeverGoesNegative(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id, _ := s.CreatePost(ctx, &models.Post{AuthorID: "a", Date: "2024-06-01"})

	// bob never liked the post but claims he did
	require.NoError(t, s.ApplyLike(ctx, id, "bob", false))

	p, _ := s.GetPost(ctx, id)
	assert.Equal(t, 0, p.LikeCount)
	assert.Equal(t, 0, p.LikedBy.Len())

	require.NoError(t, s.ApplyLike(ctx, id, "carol", true))
	p, _ = s.GetPost(ctx, id)
	assert.Equal(t, 1, p.LikeCount)
}

func TestBlobs_PutIsImmutable(t *testing.T) {
	b := NewBlobs()
	ctx := context.Background()

	data := []byte("abc")
	ref, err := b.PutBlob(ctx, "spoques/alice/1", models.AudioContentType, data)
	require.NoError(t, err)
	assert.Equal(t, "mem://spoques/alice/1", ref)

	data[0] = 'z'
	blob, ok := b.Get("spoques/alice/1")
	require.True(t, ok)
	assert.Equal(t, "abc", string(blob.Data))

	_, err = b.PutBlob(ctx, "spoques/alice/1", models.AudioContentType, data)
	assert.Error(t, err)
}
