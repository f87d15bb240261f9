// Package store declares the narrow repository contracts the core logic
// depends on. Backends live in the subpackages.
package store

import (
	"context"
	"errors"

	"masterboxer.com/project-spoque/models"
)

var (
	// ErrNotFound is returned when a referenced prompt or post is absent.
	ErrNotFound = errors.New("not found")

	// ErrDuplicatePost is returned when an author already has a post for
	// the given calendar day.
	ErrDuplicatePost = errors.New("post already exists for author on this date")

	// ErrUserExists is returned when a profile already exists for the id.
	ErrUserExists = errors.New("profile already exists")

	// ErrUsernameTaken is returned when another profile owns the username.
	ErrUsernameTaken = errors.New("username already taken")
)

// PromptRepo persists daily prompts keyed by calendar-day key.
type PromptRepo interface {
	// GetPrompt returns the prompt for date or ErrNotFound.
	GetPrompt(ctx context.Context, date string) (*models.DailyPrompt, error)

	// PutPrompt creates or overwrites the prompt for p.Date.
	PutPrompt(ctx context.Context, p *models.DailyPrompt) error
}

// PostRepo persists posts.
type PostRepo interface {
	// CreatePost stores p with likeCount 0 and an empty like set and returns
	// the new id. The creation timestamp is assigned by the store. Returns
	// ErrDuplicatePost if (AuthorID, Date) is already taken.
	CreatePost(ctx context.Context, p *models.Post) (string, error)

	// GetPost returns the post with id or ErrNotFound.
	GetPost(ctx context.Context, id string) (*models.Post, error)

	// ListPostsByDate returns a snapshot of posts for date, newest first.
	ListPostsByDate(ctx context.Context, date string) ([]models.Post, error)

	// ListPostsByAuthor returns a snapshot of an author's posts, newest first.
	ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error)

	// AuthorPostedOn reports whether authorID has a post dated date.
	AuthorPostedOn(ctx context.Context, authorID, date string) (bool, error)

	// ApplyLike atomically adjusts the like counter by +1 (like) or -1
	// (unlike) and adds or removes userID from the like set in the same
	// update. The direction is trusted; membership is not consulted. An
	// unlike never takes the counter below zero.
	ApplyLike(ctx context.Context, postID, userID string, like bool) error
}

// BlobRepo stores immutable binary objects.
type BlobRepo interface {
	// PutBlob stores data under key and returns a durable reference that
	// clients can fetch.
	PutBlob(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// UserRepo persists profiles keyed by user id.
type UserRepo interface {
	// CreateUser stores u under u.ID. Timestamps are assigned by the store.
	// Returns ErrUserExists or ErrUsernameTaken on conflicts.
	CreateUser(ctx context.Context, u *models.User) error

	GetUser(ctx context.Context, id string) (*models.User, error)

	// GetUserByUsername looks up a normalized username or returns
	// ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateUser applies the non-nil fields of upd and returns the stored
	// profile, or ErrNotFound.
	UpdateUser(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)

	// SearchUsers returns at most limit profiles matching query,
	// case-insensitively, best matches first.
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
}
