package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"masterboxer.com/project-spoque/auth"
	"masterboxer.com/project-spoque/store"
)

// ToggleLike flips the caller's like. The body carries the caller's view of
// the current state: {"liked": true} means "I currently like it, unlike".
func ToggleLike(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		liker, ok := identity(w, r)
		if !ok {
			return
		}
		postID := mux.Vars(r)["id"]

		var req struct {
			Liked *bool `json:"liked"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Liked == nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if env.LikeLimiter != nil && !env.LikeLimiter.Allow(liker.UID) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		err := env.Likes.Toggle(r.Context(), postID, liker.UID, *req.Liked)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Spoque not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to toggle like", http.StatusInternalServerError)
			log.Println("ToggleLike error:", err)
			return
		}

		nowLiked := !*req.Liked
		if nowLiked {
			go notifyPostOwnerOfLike(env, postID, *liker)
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"liked": nowLiked,
		})
	}
}

func notifyPostOwnerOfLike(env *Env, postID string, liker auth.Identity) {
	if env.Notifier == nil {
		return
	}
	ctx := context.Background()

	post, err := env.Feed.Post(ctx, postID)
	if err != nil {
		log.Printf("Error fetching spoque %s for like notification: %v", postID, err)
		return
	}
	if post.AuthorID == liker.UID {
		return
	}

	name := liker.Username
	if env.Profiles != nil {
		if u, err := env.Profiles.Get(ctx, liker.UID); err == nil {
			name = u.Username
		}
	}

	if err := env.Notifier.NotifyLike(ctx, post, name); err != nil {
		log.Printf("Error sending like notification for %s: %v", postID, err)
	}
}
