// Package upload turns a finalized recording into a stored post.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"masterboxer.com/project-spoque/clock"
	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/recorder"
	"masterboxer.com/project-spoque/store"
)

// ErrUploadFailed means the audio push or the post write failed.
var ErrUploadFailed = errors.New("upload failed")

// Source yields a finalized clip. *recorder.Session satisfies it once
// stopped, and *recorder.Clip always does.
type Source interface {
	Clip() (*recorder.Clip, error)
}

// Submission carries everything about the post except the audio.
type Submission struct {
	AuthorID       string
	AuthorUsername string
	AuthorPhotoRef string
	Prompt         *models.DailyPrompt
	Caption        string
}

func (s Submission) validate() error {
	if s.AuthorID == "" {
		return models.Invalid("author is required")
	}
	if s.AuthorUsername == "" {
		return models.Invalid("username is required")
	}
	if s.Prompt == nil || s.Prompt.Date == "" {
		return models.Invalid("prompt is required")
	}
	return models.ValidateCaption(s.Caption)
}

type Pipeline struct {
	blobs store.BlobRepo
	posts store.PostRepo
	clock clock.Clock
}

func NewPipeline(blobs store.BlobRepo, posts store.PostRepo, c clock.Clock) *Pipeline {
	return &Pipeline{blobs: blobs, posts: posts, clock: c}
}

// BlobKey returns the object path for a clip pushed by authorID now.
func (p *Pipeline) BlobKey(authorID string) string {
	return fmt.Sprintf("spoques/%s/%d", authorID, p.clock.Now().UnixMilli())
}

// Submit pushes the clip and then writes the post that references it. The
// caller is expected to have checked the daily gate first.
//
// The two writes are not atomic. A failed push creates nothing. A failed
// post write after a successful push leaves the blob orphaned; that is
// logged and not retried.
func (p *Pipeline) Submit(ctx context.Context, src Source, sub Submission) (string, error) {
	sub.Caption = strings.TrimSpace(sub.Caption)
	if err := sub.validate(); err != nil {
		return "", err
	}

	clip, err := src.Clip()
	if err != nil {
		return "", err
	}
	if clip.Len() == 0 {
		return "", models.Invalid("recording is empty")
	}

	key := p.BlobKey(sub.AuthorID)
	audioRef, err := p.blobs.PutBlob(ctx, key, models.AudioContentType, clip.Bytes())
	if err != nil {
		log.Printf("[Upload] Failed to store audio for user %s: %v", sub.AuthorID, err)
		return "", fmt.Errorf("%w: store audio: %w", ErrUploadFailed, err)
	}

	post := &models.Post{
		AuthorID:       sub.AuthorID,
		AuthorUsername: sub.AuthorUsername,
		AuthorPhotoRef: sub.AuthorPhotoRef,
		AudioRef:       audioRef,
		Caption:        sub.Caption,
		PromptID:       sub.Prompt.ID,
		PromptText:     sub.Prompt.Text,
		Date:           sub.Prompt.Date,
	}

	id, err := p.posts.CreatePost(ctx, post)
	if err != nil {
		log.Printf("[Upload] Orphaned blob %s: post write for user %s failed: %v", key, sub.AuthorID, err)
		return "", fmt.Errorf("%w: create post: %w", ErrUploadFailed, err)
	}

	log.Printf("[Upload] Created spoque %s for user %s on %s (%d bytes, %s)",
		id, sub.AuthorID, post.Date, clip.Len(), clip.Duration)
	return id, nil
}
