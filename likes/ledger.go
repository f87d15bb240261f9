// Package likes applies like/unlike toggles to posts.
package likes

import (
	"context"
	"fmt"
	"log"

	"masterboxer.com/project-spoque/store"
)

// Ledger keeps a post's like counter and like set moving together.
type Ledger struct {
	posts store.PostRepo
}

func NewLedger(posts store.PostRepo) *Ledger {
	return &Ledger{posts: posts}
}

// Toggle flips userID's like on postID. currentlyLiked is the caller's view
// of the prior state and decides the direction: true removes the like and
// decrements, false adds it and increments. Counter and membership change
// in one atomic store update.
//
// The prior state is not verified against the store, so a caller with a
// stale view applies the wrong delta. Stores floor the counter at zero.
// Callers must not issue a second
// toggle in the same direction before the first settles.
func (l *Ledger) Toggle(ctx context.Context, postID, userID string, currentlyLiked bool) error {
	like := !currentlyLiked
	if err := l.posts.ApplyLike(ctx, postID, userID, like); err != nil {
		return fmt.Errorf("toggle like on %s: %w", postID, err)
	}

	action := "liked"
	if !like {
		action = "unliked"
	}
	log.Printf("[Likes] user %s %s post %s", userID, action, postID)
	return nil
}
