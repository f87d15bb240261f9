package autoplay

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterboxer.com/project-spoque/models"
)

type fakeSource struct {
	id      string
	playing bool
	plays   int
	pauses  int
	onEnded func()
	failure error
}

func (f *fakeSource) Play(onEnded func()) error {
	if f.failure != nil {
		return f.failure
	}
	f.playing = true
	f.plays++
	f.onEnded = onEnded
	return nil
}

func (f *fakeSource) Pause() {
	f.playing = false
	f.pauses++
}

func (f *fakeSource) Playing() bool {
	return f.playing
}

// finish simulates the clip reaching its natural end.
func (f *fakeSource) finish() {
	f.playing = false
	f.onEnded()
}

type fakePlayer struct {
	mu      sync.Mutex
	sources map[string]*fakeSource
	fail    map[string]error
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{sources: map[string]*fakeSource{}, fail: map[string]error{}}
}

func (p *fakePlayer) factory(post models.Post) Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	src := &fakeSource{id: post.ID, failure: p.fail[post.ID]}
	p.sources[post.ID] = src
	return src
}

func (p *fakePlayer) get(id string) *fakeSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sources[id]
}

func (p *fakePlayer) playingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.sources {
		if s.playing {
			n++
		}
	}
	return n
}

func feedOf(n int) []models.Post {
	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = models.Post{ID: fmt.Sprintf("p%d", i+1)}
	}
	return posts
}

func TestSequencer_EndAdvancesAndPlaysNext(t *testing.T) {
	player := newFakePlayer()
	seq := New(feedOf(3), player.factory)

	require.NoError(t, seq.Play())
	assert.Equal(t, 0, seq.PlayingIndex())

	player.get("p1").finish()

	assert.Equal(t, 1, seq.Index())
	assert.Equal(t, 1, seq.PlayingIndex())
	assert.True(t, player.get("p2").Playing())
	assert.False(t, player.get("p1").Playing())
	assert.Equal(t, 1, player.playingCount())
}

func TestSequencer_StopsAtEnd(t *testing.T) {
	player := newFakePlayer()
	seq := New(feedOf(2), player.factory)

	require.NoError(t, seq.Play())
	player.get("p1").finish()
	player.get("p2").finish()

	assert.Equal(t, 1, seq.Index())
	assert.Equal(t, -1, seq.PlayingIndex())
	assert.Equal(t, 0, player.playingCount())
}

func TestSequencer_NavigationClamps(t *testing.T) {
	seq := New(feedOf(3), newFakePlayer().factory)

	assert.False(t, seq.Retreat())
	assert.Equal(t, 0, seq.Index())

	assert.True(t, seq.Advance())
	assert.True(t, seq.Advance())
	assert.False(t, seq.Advance())
	assert.Equal(t, 2, seq.Index())

	assert.True(t, seq.Retreat())
	assert.Equal(t, 1, seq.Index())
}

func TestSequencer_ManualNavigationPausesWithoutPlaying(t *testing.T) {
	player := newFakePlayer()
	seq := New(feedOf(3), player.factory)

	require.NoError(t, seq.Play())
	require.True(t, seq.Advance())

	assert.False(t, player.get("p1").Playing())
	assert.Nil(t, player.get("p2"))
	assert.Equal(t, -1, seq.PlayingIndex())
	assert.Equal(t, 0, player.playingCount())

	// a late end from the paused clip must not pull the feed forward
	player.get("p1").onEnded()
	assert.Equal(t, 1, seq.Index())
	assert.Equal(t, -1, seq.PlayingIndex())
}

func TestSequencer_PlayPausesOthers(t *testing.T) {
	player := newFakePlayer()
	seq := New(feedOf(4), player.factory)

	for i := 0; i < 4; i++ {
		require.NoError(t, seq.Play())
		assert.LessOrEqual(t, player.playingCount(), 1)
		seq.Advance()
	}

	// a source that started playing outside the sequencer is paused too
	player.get("p1").playing = true
	require.NoError(t, seq.Play())
	assert.False(t, player.get("p1").Playing())
	assert.Equal(t, 1, player.playingCount())
}

func TestSequencer_StaleEndIgnoredAfterReplay(t *testing.T) {
	player := newFakePlayer()
	seq := New(feedOf(3), player.factory)

	require.NoError(t, seq.Play())
	first := player.get("p1").onEnded

	require.NoError(t, seq.Play())
	first()

	assert.Equal(t, 0, seq.Index())
	assert.Equal(t, 0, seq.PlayingIndex())
	assert.Equal(t, 2, player.get("p1").plays)
}

func TestSequencer_ArchiveModeDoesNotAdvance(t *testing.T) {
	player := newFakePlayer()
	seq := New(feedOf(3), player.factory, WithAutoplay(false))

	require.NoError(t, seq.Play())
	player.get("p1").finish()

	assert.Equal(t, 0, seq.Index())
	assert.Equal(t, -1, seq.PlayingIndex())
	assert.Nil(t, player.get("p2"))
}

func TestSequencer_Toggle(t *testing.T) {
	player := newFakePlayer()
	seq := New(feedOf(2), player.factory)

	require.NoError(t, seq.Toggle())
	assert.True(t, player.get("p1").Playing())

	require.NoError(t, seq.Toggle())
	assert.False(t, player.get("p1").Playing())
	assert.Equal(t, -1, seq.PlayingIndex())

	require.NoError(t, seq.Toggle())
	assert.True(t, player.get("p1").Playing())
	assert.Equal(t, 1, player.get("p1").pauses)
}

func TestSequencer_EmptyFeed(t *testing.T) {
	seq := New(nil, newFakePlayer().factory)

	assert.ErrorIs(t, seq.Play(), ErrEmptyFeed)
	assert.False(t, seq.Advance())
	assert.False(t, seq.Retreat())
	_, ok := seq.Current()
	assert.False(t, ok)
}

func TestSequencer_PlayFailureLeavesNothingPlaying(t *testing.T) {
	player := newFakePlayer()
	player.fail["p2"] = errors.New("no decoder")
	seq := New(feedOf(2), player.factory)

	require.NoError(t, seq.Play())
	player.get("p1").finish()

	assert.Equal(t, 1, seq.Index())
	assert.Equal(t, -1, seq.PlayingIndex())
	assert.Equal(t, 0, player.playingCount())
}

func TestSequencer_CloseStopsPlayback(t *testing.T) {
	player := newFakePlayer()
	seq := New(feedOf(2), player.factory)

	require.NoError(t, seq.Play())
	seq.Close()

	assert.Equal(t, 0, player.playingCount())
	player.get("p1").onEnded()
	assert.Equal(t, 0, seq.Index())
}

func TestSequencer_CopiesPosts(t *testing.T) {
	posts := feedOf(2)
	seq := New(posts, newFakePlayer().factory)
	posts[0].ID = "changed"

	cur, ok := seq.Current()
	require.True(t, ok)
	assert.Equal(t, "p1", cur.ID)
}

func TestSequencer_OnPlay(t *testing.T) {
	player := newFakePlayer()
	var played []string
	seq := New(feedOf(3), player.factory, WithOnPlay(func(idx int, post models.Post) {
		played = append(played, post.ID)
	}))

	require.NoError(t, seq.Play())
	player.get("p1").finish()
	player.get("p2").finish()
	player.get("p3").finish()

	assert.Equal(t, []string{"p1", "p2", "p3"}, played)
}
