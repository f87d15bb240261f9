package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"masterboxer.com/project-spoque/auth"
	"masterboxer.com/project-spoque/clock"
	"masterboxer.com/project-spoque/feed"
	"masterboxer.com/project-spoque/likes"
	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/profiles"
	"masterboxer.com/project-spoque/services"
	"masterboxer.com/project-spoque/upload"
)

// Env carries the collaborators every handler closes over.
type Env struct {
	Feed        *feed.Service
	Likes       *likes.Ledger
	Upload      *upload.Pipeline
	Profiles    *profiles.Service
	Notifier    services.Notifier
	LikeLimiter *services.UserLimiter
	Clock       clock.Clock

	// Local is nil unless local accounts are enabled.
	Local  *auth.LocalProvider
	Admins auth.Admins

	CronSecret    string
	PublicBaseURL string
}

// ShareURL is the public link to a spoque's detail page.
func (env *Env) ShareURL(id string) string {
	return env.PublicBaseURL + "/spoque/" + id
}

type spoqueResponse struct {
	models.Post
	ShareURL  string `json:"share_url"`
	LikedByMe bool   `json:"liked_by_me"`
}

func (env *Env) present(p models.Post, viewer *auth.Identity) spoqueResponse {
	resp := spoqueResponse{Post: p, ShareURL: env.ShareURL(p.ID)}
	if viewer != nil {
		resp.LikedByMe = p.LikedByUser(viewer.UID)
	}
	return resp
}

func (env *Env) presentAll(posts []models.Post, viewer *auth.Identity) []spoqueResponse {
	out := make([]spoqueResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, env.present(p, viewer))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] encode response: %v", err)
	}
}

func identity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return id, true
}
