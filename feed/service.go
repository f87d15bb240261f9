// Package feed answers "what is today" questions: today's prompt, today's
// posts and whether a user has already posted. Every answer is derived from
// one calendar so the three never disagree about the day.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"masterboxer.com/project-spoque/calendar"
	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/store"
)

type Service struct {
	prompts  store.PromptRepo
	posts    store.PostRepo
	calendar *calendar.Calendar
}

func NewService(prompts store.PromptRepo, posts store.PostRepo, cal *calendar.Calendar) *Service {
	return &Service{
		prompts:  prompts,
		posts:    posts,
		calendar: cal,
	}
}

// Today returns the canonical calendar-day key.
func (s *Service) Today() string {
	return s.calendar.Today()
}

// Calendar returns the calendar the service partitions days with.
func (s *Service) Calendar() *calendar.Calendar {
	return s.calendar
}

// TodaysPrompt returns today's prompt, or nil if none has been set.
func (s *Service) TodaysPrompt(ctx context.Context) (*models.DailyPrompt, error) {
	return s.PromptByDate(ctx, s.Today())
}

// PromptByDate returns the prompt for date, or nil if none has been set.
func (s *Service) PromptByDate(ctx context.Context, date string) (*models.DailyPrompt, error) {
	if !s.calendar.Valid(date) {
		return nil, models.Invalid("date must be YYYY-MM-DD")
	}

	p, err := s.prompts.GetPrompt(ctx, date)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get prompt %s: %w", date, err)
	}
	return p, nil
}

// SetPrompt creates or overwrites the prompt for date. An empty date means
// today. Dates before today are rejected.
func (s *Service) SetPrompt(ctx context.Context, date, text, createdBy string) (*models.DailyPrompt, error) {
	text = strings.TrimSpace(text)
	if err := models.ValidatePromptText(text); err != nil {
		return nil, err
	}

	today := s.Today()
	if date == "" {
		date = today
	}
	if !s.calendar.Valid(date) {
		return nil, models.Invalid("date must be YYYY-MM-DD")
	}
	if calendar.Before(date, today) {
		return nil, models.Invalid("cannot set a prompt for a past date")
	}

	p := &models.DailyPrompt{
		ID:        date,
		Text:      text,
		Date:      date,
		CreatedBy: createdBy,
	}
	if err := s.prompts.PutPrompt(ctx, p); err != nil {
		return nil, fmt.Errorf("put prompt %s: %w", date, err)
	}

	log.Printf("[Feed] Prompt for %s set by %s", date, createdBy)
	return p, nil
}

// TodaysPosts returns a fresh snapshot of today's posts, newest first.
func (s *Service) TodaysPosts(ctx context.Context) ([]models.Post, error) {
	return s.PostsOnDate(ctx, s.Today())
}

// PostsOnDate returns the posts for an arbitrary day, newest first. This is
// the archive view.
func (s *Service) PostsOnDate(ctx context.Context, date string) ([]models.Post, error) {
	if !s.calendar.Valid(date) {
		return nil, models.Invalid("date must be YYYY-MM-DD")
	}

	posts, err := s.posts.ListPostsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list posts for %s: %w", date, err)
	}
	return posts, nil
}

// PostsByAuthor returns every post by userID, newest first.
func (s *Service) PostsByAuthor(ctx context.Context, userID string) ([]models.Post, error) {
	posts, err := s.posts.ListPostsByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list posts by %s: %w", userID, err)
	}
	return posts, nil
}

// Post returns a single post or store.ErrNotFound.
func (s *Service) Post(ctx context.Context, id string) (*models.Post, error) {
	return s.posts.GetPost(ctx, id)
}

// HasPostedToday reports whether userID already has a post for today.
//
// This is a plain read. Two submissions racing past it can both proceed;
// the store's (author, date) uniqueness guard decides the loser.
func (s *Service) HasPostedToday(ctx context.Context, userID string) (bool, error) {
	return s.HasPostedOn(ctx, userID, s.Today())
}

// HasPostedOn is HasPostedToday for a fixed day key, for callers that
// resolved "today" once and need every read to agree with it.
func (s *Service) HasPostedOn(ctx context.Context, userID, date string) (bool, error) {
	posted, err := s.posts.AuthorPostedOn(ctx, userID, date)
	if err != nil {
		return false, fmt.Errorf("check posted on %s for %s: %w", date, userID, err)
	}
	return posted, nil
}
