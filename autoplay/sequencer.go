// Package autoplay walks an ordered feed of posts and keeps at most one of
// them playing.
package autoplay

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"masterboxer.com/project-spoque/models"
)

var ErrEmptyFeed = errors.New("feed is empty")

// Source is one post's audio. Play must return promptly and report a natural
// end through onEnded from another goroutine; Pause must not invoke onEnded.
type Source interface {
	Play(onEnded func()) error
	Pause()
	Playing() bool
}

// Factory builds the Source for a post. It is called at most once per
// position, the first time that position is played.
type Factory func(post models.Post) Source

type Option func(*Sequencer)

// WithAutoplay controls whether the natural end of a clip starts the next
// one. Archive browsing turns it off.
func WithAutoplay(on bool) Option {
	return func(s *Sequencer) {
		s.autoplay = on
	}
}

// WithOnPlay registers fn to run whenever a position starts playing. fn is
// called with the sequencer locked and must not call back into it.
func WithOnPlay(fn func(idx int, post models.Post)) Option {
	return func(s *Sequencer) {
		s.onPlay = fn
	}
}

type Sequencer struct {
	factory  Factory
	autoplay bool
	onPlay   func(idx int, post models.Post)

	mu      sync.Mutex
	posts   []models.Post
	sources []Source
	index   int
	playing int
	token   int
}

// New copies posts, so later changes to the caller's slice do not shift the
// sequence.
func New(posts []models.Post, factory Factory, opts ...Option) *Sequencer {
	s := &Sequencer{
		factory:  factory,
		autoplay: true,
		posts:    append([]models.Post(nil), posts...),
		sources:  make([]Source, len(posts)),
		playing:  -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

func (s *Sequencer) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Current returns the post at the current index.
func (s *Sequencer) Current() (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.posts) == 0 {
		return models.Post{}, false
	}
	return s.posts[s.index], true
}

// PlayingIndex returns the position that is playing, or -1.
func (s *Sequencer) PlayingIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Advance moves to the next post without starting playback. It reports
// false at the end of the feed.
func (s *Sequencer) Advance() bool {
	return s.move(1)
}

// Retreat moves to the previous post without starting playback. It reports
// false at the start of the feed.
func (s *Sequencer) Retreat() bool {
	return s.move(-1)
}

func (s *Sequencer) move(delta int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.index + delta
	if next < 0 || next >= len(s.posts) {
		return false
	}
	s.pauseLocked()
	s.index = next
	return true
}

// Play starts the post at the current index, pausing whatever else plays.
func (s *Sequencer) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playLocked()
}

// Toggle pauses the current post if it is playing and plays it otherwise.
func (s *Sequencer) Toggle() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing == s.index && s.playing >= 0 {
		s.pauseLocked()
		return nil
	}
	return s.playLocked()
}

// Pause stops whatever is playing.
func (s *Sequencer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseLocked()
}

// Close pauses every source that was created.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token++
	s.playing = -1
	for _, src := range s.sources {
		if src != nil && src.Playing() {
			src.Pause()
		}
	}
}

func (s *Sequencer) playLocked() error {
	if len(s.posts) == 0 {
		return ErrEmptyFeed
	}

	for i, src := range s.sources {
		if src != nil && src.Playing() {
			src.Pause()
		}
		if i == s.playing {
			s.playing = -1
		}
	}

	idx := s.index
	src := s.sources[idx]
	if src == nil {
		src = s.factory(s.posts[idx])
		s.sources[idx] = src
	}

	s.token++
	token := s.token
	if err := src.Play(func() { s.ended(idx, token) }); err != nil {
		return fmt.Errorf("play %s: %w", s.posts[idx].ID, err)
	}
	s.playing = idx
	if s.onPlay != nil {
		s.onPlay(idx, s.posts[idx])
	}
	return nil
}

func (s *Sequencer) pauseLocked() {
	s.token++
	if s.playing < 0 {
		return
	}
	if src := s.sources[s.playing]; src != nil {
		src.Pause()
	}
	s.playing = -1
}

// ended handles the natural end of the clip started with token. Ends from
// superseded plays are ignored.
func (s *Sequencer) ended(idx, token int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token || idx != s.playing {
		return
	}
	s.playing = -1

	if !s.autoplay || idx+1 >= len(s.posts) {
		return
	}
	s.index = idx + 1
	if err := s.playLocked(); err != nil {
		log.Printf("[Autoplay] advancing to %d: %v", s.index, err)
	}
}
