package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"masterboxer.com/project-spoque/auth"
	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/profiles"
	"masterboxer.com/project-spoque/recorder"
	"masterboxer.com/project-spoque/store"
	"masterboxer.com/project-spoque/upload"
)

const (
	maxUploadBytes   = 10 << 20
	dailyLimitReason = "Daily post limit reached (1 post per day)"
)

type feedResponse struct {
	Date        string              `json:"date"`
	Prompt      *models.DailyPrompt `json:"prompt"`
	Spoques     []spoqueResponse    `json:"spoques"`
	PostedToday bool                `json:"posted_today"`
}

// GetTodaysFeed returns today's prompt, today's spoques and the caller's
// gate state, all resolved against one day key.
func GetTodaysFeed(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := identity(w, r)
		if !ok {
			return
		}

		date := env.Feed.Today()
		var (
			prompt *models.DailyPrompt
			posts  []models.Post
			posted bool
		)

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			var err error
			prompt, err = env.Feed.PromptByDate(ctx, date)
			return err
		})
		g.Go(func() error {
			var err error
			posts, err = env.Feed.PostsOnDate(ctx, date)
			return err
		})
		g.Go(func() error {
			var err error
			posted, err = env.Feed.HasPostedOn(ctx, viewer.UID, date)
			return err
		})
		if err := g.Wait(); err != nil {
			http.Error(w, "Failed to fetch feed", http.StatusInternalServerError)
			log.Printf("GetTodaysFeed error: %v", err)
			return
		}

		log.Printf("GetTodaysFeed returning %d spoques for %s", len(posts), date)
		writeJSON(w, http.StatusOK, feedResponse{
			Date:        date,
			Prompt:      prompt,
			Spoques:     env.presentAll(posts, viewer),
			PostedToday: posted,
		})
	}
}

// GetSpoquesByDate is the archive view of a past day.
func GetSpoquesByDate(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := identity(w, r)
		if !ok {
			return
		}
		date := mux.Vars(r)["date"]

		posts, err := env.Feed.PostsOnDate(r.Context(), date)
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "Failed to fetch spoques", http.StatusInternalServerError)
			log.Printf("GetSpoquesByDate error: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, env.presentAll(posts, viewer))
	}
}

func GetPostedToday(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := identity(w, r)
		if !ok {
			return
		}
		date := env.Feed.Today()
		posted, err := env.Feed.HasPostedOn(r.Context(), viewer.UID, date)
		if err != nil {
			http.Error(w, "Failed to check daily limit", http.StatusInternalServerError)
			log.Printf("GetPostedToday error: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"date":         date,
			"posted_today": posted,
		})
	}
}

func GetSpoquesByUser(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := identity(w, r)
		if !ok {
			return
		}
		userID := mux.Vars(r)["userId"]
		if userID == "" {
			http.Error(w, "userId parameter missing", http.StatusBadRequest)
			return
		}

		posts, err := env.Feed.PostsByAuthor(r.Context(), userID)
		if err != nil {
			http.Error(w, "Failed to fetch spoques", http.StatusInternalServerError)
			log.Printf("GetSpoquesByUser error: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, env.presentAll(posts, viewer))
	}
}

// GetSpoque returns one spoque. It is also the public share page, so a
// viewer is optional.
func GetSpoque(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		post, err := env.Feed.Post(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Spoque not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to fetch spoque", http.StatusInternalServerError)
			log.Printf("GetSpoque error: %v", err)
			return
		}

		viewer, _ := auth.FromContext(r.Context())
		writeJSON(w, http.StatusOK, env.present(*post, viewer))
	}
}

// CreateSpoque accepts a multipart form with an "audio" file and an
// optional "caption" and "duration_ms".
func CreateSpoque(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		author, ok := identity(w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "Invalid multipart body", http.StatusBadRequest)
			return
		}

		file, _, err := r.FormFile("audio")
		if err != nil {
			http.Error(w, "audio is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "Failed to read audio", http.StatusBadRequest)
			return
		}

		duration := time.Duration(0)
		if ms := r.FormValue("duration_ms"); ms != "" {
			n, err := strconv.Atoi(ms)
			if err != nil || n < 0 {
				http.Error(w, "Invalid duration_ms", http.StatusBadRequest)
				return
			}
			duration = time.Duration(n) * time.Millisecond
		}
		if duration > recorder.MaxDuration {
			http.Error(w, "Recording is longer than 20 seconds", http.StatusBadRequest)
			return
		}

		profile, err := env.Profiles.Ensure(r.Context(), author.UID, author.Username, author.PhotoURL, author.Email)
		if errors.Is(err, profiles.ErrProfileRequired) {
			http.Error(w, "Create a profile before posting", http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, "Failed to fetch profile", http.StatusInternalServerError)
			log.Printf("CreateSpoque profile error: %v", err)
			return
		}

		prompt, err := env.Feed.TodaysPrompt(r.Context())
		if err != nil {
			http.Error(w, "Failed to fetch prompt", http.StatusInternalServerError)
			log.Printf("CreateSpoque prompt error: %v", err)
			return
		}
		if prompt == nil {
			http.Error(w, "No prompt for today", http.StatusNotFound)
			return
		}

		posted, err := env.Feed.HasPostedOn(r.Context(), author.UID, prompt.Date)
		if err != nil {
			http.Error(w, "Failed to check daily limit", http.StatusInternalServerError)
			log.Println("CreateSpoque daily limit check error:", err)
			return
		}
		if posted {
			http.Error(w, dailyLimitReason, http.StatusForbidden)
			return
		}

		clip := recorder.NewClip(data, models.AudioContentType, duration)
		sub := upload.Submission{
			AuthorID:       author.UID,
			AuthorUsername: profile.Username,
			AuthorPhotoRef: profile.PhotoURL,
			Prompt:         prompt,
			Caption:        r.FormValue("caption"),
		}

		// the upload outlives a client that disconnects mid-request
		id, err := env.Upload.Submit(context.WithoutCancel(r.Context()), clip, sub)
		switch {
		case errors.Is(err, models.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, store.ErrDuplicatePost):
			http.Error(w, dailyLimitReason, http.StatusForbidden)
			return
		case err != nil:
			http.Error(w, "Failed to upload spoque", http.StatusInternalServerError)
			log.Println("CreateSpoque error:", err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"id":        id,
			"share_url": env.ShareURL(id),
		})
	}
}
