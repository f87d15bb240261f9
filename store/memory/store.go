// Package memory is an in-process store used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"masterboxer.com/project-spoque/clock"
	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/store"
)

type postRecord struct {
	post models.Post
	seq  int64
}

// Store implements store.PromptRepo, store.PostRepo and store.UserRepo.
type Store struct {
	clock clock.Clock

	mu      sync.RWMutex
	prompts map[string]models.DailyPrompt
	posts   map[string]*postRecord
	daily   map[string]string // author|date -> post id
	seq     int64

	users     map[string]models.User
	usernames map[string]string // username -> user id
}

func New(c clock.Clock) *Store {
	return &Store{
		clock:   c,
		prompts: make(map[string]models.DailyPrompt),
		posts:   make(map[string]*postRecord),
		daily:   make(map[string]string),

		users:     make(map[string]models.User),
		usernames: make(map[string]string),
	}
}

func dailyKey(authorID, date string) string {
	return authorID + "|" + date
}

func (s *Store) GetPrompt(ctx context.Context, date string) (*models.DailyPrompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prompts[date]
	if !ok {
		return nil, fmt.Errorf("prompt %s: %w", date, store.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) PutPrompt(ctx context.Context, p *models.DailyPrompt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *p
	stored.ID = p.Date
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.clock.Now().UTC()
	}
	s.prompts[p.Date] = stored
	return nil
}

func (s *Store) CreatePost(ctx context.Context, p *models.Post) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dailyKey(p.AuthorID, p.Date)
	if _, taken := s.daily[key]; taken {
		return "", store.ErrDuplicatePost
	}

	s.seq++
	stored := *p
	stored.ID = uuid.NewString()
	stored.LikeCount = 0
	stored.LikedBy = models.NewUserSet()
	stored.CreatedAt = s.clock.Now().UTC()

	s.posts[stored.ID] = &postRecord{post: stored, seq: s.seq}
	s.daily[key] = stored.ID
	return stored.ID, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, store.ErrNotFound)
	}
	p := snapshot(rec.post)
	return &p, nil
}

func (s *Store) ListPostsByDate(ctx context.Context, date string) ([]models.Post, error) {
	return s.list(func(p *models.Post) bool { return p.Date == date }), nil
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	return s.list(func(p *models.Post) bool { return p.AuthorID == authorID }), nil
}

func (s *Store) AuthorPostedOn(ctx context.Context, authorID, date string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.daily[dailyKey(authorID, date)]
	return ok, nil
}

// ApplyLike mirrors a document-store increment plus array union/remove: the
// counter moves by one, the set only changes when membership does. The
// counter never drops below zero.
func (s *Store) ApplyLike(ctx context.Context, postID, userID string, like bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.posts[postID]
	if !ok {
		return fmt.Errorf("post %s: %w", postID, store.ErrNotFound)
	}
	if like {
		rec.post.LikeCount++
		rec.post.LikedBy.Add(userID)
	} else {
		if rec.post.LikeCount > 0 {
			rec.post.LikeCount--
		}
		rec.post.LikedBy.Remove(userID)
	}
	return nil
}

func (s *Store) list(match func(*models.Post) bool) []models.Post {
	s.mu.RLock()
	recs := make([]*postRecord, 0)
	for _, rec := range s.posts {
		if match(&rec.post) {
			recs = append(recs, rec)
		}
	}

	// newest first; equal timestamps fall back to arrival order
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]models.Post, len(recs))
	for i, rec := range recs {
		out[i] = snapshot(rec.post)
	}
	s.mu.RUnlock()
	return out
}

func snapshot(p models.Post) models.Post {
	p.LikedBy = p.LikedBy.Clone()
	return p
}
