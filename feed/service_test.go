package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterboxer.com/project-spoque/calendar"
	"masterboxer.com/project-spoque/clock/clocktest"
	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/store"
	"masterboxer.com/project-spoque/store/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store, *clocktest.Clock) {
	t.Helper()
	clk := clocktest.New(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	mem := memory.New(clk)
	return NewService(mem, mem, calendar.New(clk, time.UTC)), mem, clk
}

func TestService_TodaysPromptAbsent(t *testing.T) {
	svc, _, _ := newTestService(t)

	p, err := svc.TodaysPrompt(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestService_SetPrompt(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.SetPrompt(ctx, "", "  What made you smile today?  ", "admin")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", p.ID)
	assert.Equal(t, "What made you smile today?", p.Text)

	today, err := svc.TodaysPrompt(ctx)
	require.NoError(t, err)
	require.NotNil(t, today)
	assert.Equal(t, "What made you smile today?", today.Text)

	_, err = svc.SetPrompt(ctx, "2024-06-02", "Tomorrow's question", "admin")
	require.NoError(t, err)
	tomorrow, err := svc.PromptByDate(ctx, "2024-06-02")
	require.NoError(t, err)
	assert.Equal(t, "Tomorrow's question", tomorrow.Text)
}

func TestService_SetPromptValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]struct {
		date, text string
	}{
		"empty text": {"", "   "},
		"bad date":   {"June 1st", "hello"},
		"past date":  {"2024-05-31", "hello"},
		"overlong":   {"", strings.Repeat("a", models.MaxPromptLength+1)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SetPrompt(ctx, tc.date, tc.text, "admin")
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestService_HasPostedToday(t *testing.T) {
	svc, mem, clk := newTestService(t)
	ctx := context.Background()

	posted, err := svc.HasPostedToday(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, posted)

	_, err = mem.CreatePost(ctx, &models.Post{AuthorID: "alice", Date: "2024-06-01"})
	require.NoError(t, err)

	posted, err = svc.HasPostedToday(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, posted)

	posted, err = svc.HasPostedToday(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, posted)

	// the gate reopens when the calendar rolls over
	clk.Advance(12 * time.Hour)
	posted, err = svc.HasPostedToday(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, posted)
}

func TestService_TodaysPostsSnapshot(t *testing.T) {
	svc, mem, clk := newTestService(t)
	ctx := context.Background()

	_, _ = mem.CreatePost(ctx, &models.Post{AuthorID: "old", Date: "2024-05-31"})
	first, _ := mem.CreatePost(ctx, &models.Post{AuthorID: "a", Date: "2024-06-01"})
	clk.Advance(time.Second)
	second, _ := mem.CreatePost(ctx, &models.Post{AuthorID: "b", Date: "2024-06-01"})

	posts, err := svc.TodaysPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second, posts[0].ID)
	assert.Equal(t, first, posts[1].ID)

	// a later post is only visible to a fresh query
	clk.Advance(time.Second)
	_, _ = mem.CreatePost(ctx, &models.Post{AuthorID: "c", Date: "2024-06-01"})
	assert.Len(t, posts, 2)

	again, err := svc.TodaysPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 3)

	archive, err := svc.PostsOnDate(ctx, "2024-05-31")
	require.NoError(t, err)
	assert.Len(t, archive, 1)

	_, err = svc.PostsOnDate(ctx, "yesterday")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestService_PostLookups(t *testing.T) {
	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	id, _ := mem.CreatePost(ctx, &models.Post{AuthorID: "alice", Date: "2024-06-01"})

	p, err := svc.Post(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.AuthorID)

	_, err = svc.Post(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	mine, err := svc.PostsByAuthor(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
