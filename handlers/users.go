package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"

	"github.com/gorilla/mux"

	"masterboxer.com/project-spoque/models"
	"masterboxer.com/project-spoque/profiles"
	"masterboxer.com/project-spoque/store"
)

const maxProfileBytes = profiles.MaxPhotoBytes + 1<<20

type profileResponse struct {
	User    *models.User     `json:"user"`
	Spoques []spoqueResponse `json:"spoques"`
}

// CreateUser registers the caller's profile with a chosen username.
func CreateUser(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity(w, r)
		if !ok {
			return
		}

		var req struct {
			Username    string `json:"username"`
			DisplayName string `json:"display_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		u, err := env.Profiles.Register(r.Context(), caller.UID, req.Username, req.DisplayName, caller.Email)
		switch {
		case errors.Is(err, models.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, store.ErrUsernameTaken):
			http.Error(w, "Username already taken", http.StatusConflict)
			return
		case errors.Is(err, store.ErrUserExists):
			http.Error(w, "Profile already exists", http.StatusConflict)
			return
		case err != nil:
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
			log.Println("CreateUser error:", err)
			return
		}

		writeJSON(w, http.StatusCreated, u)
	}
}

// GetMe returns the caller's profile, provisioning it on first use when
// the sign-in identity carries a usable username.
func GetMe(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity(w, r)
		if !ok {
			return
		}

		u, err := env.Profiles.Ensure(r.Context(), caller.UID, caller.Username, caller.PhotoURL, caller.Email)
		if errors.Is(err, profiles.ErrProfileRequired) {
			http.Error(w, "Profile not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to fetch profile", http.StatusInternalServerError)
			log.Println("GetMe error:", err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// UpdateMe changes the caller's display name and photo. It accepts JSON
// {"display_name": ...} or a multipart form with "display_name" and a
// "photo" file.
func UpdateMe(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity(w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxProfileBytes)

		var (
			displayName *string
			photo       *profiles.Photo
		)
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "multipart/form-data" {
			if err := r.ParseMultipartForm(maxProfileBytes); err != nil {
				http.Error(w, "Invalid multipart body", http.StatusBadRequest)
				return
			}
			if vals, ok := r.MultipartForm.Value["display_name"]; ok && len(vals) > 0 {
				displayName = &vals[0]
			}
			file, header, err := r.FormFile("photo")
			if err == nil {
				defer file.Close()
				data, err := io.ReadAll(file)
				if err != nil {
					http.Error(w, "Failed to read photo", http.StatusBadRequest)
					return
				}
				contentType := header.Header.Get("Content-Type")
				if contentType == "" || contentType == "application/octet-stream" {
					contentType = http.DetectContentType(data)
				}
				photo = &profiles.Photo{Data: data, ContentType: contentType}
			} else if !errors.Is(err, http.ErrMissingFile) {
				http.Error(w, "Invalid photo", http.StatusBadRequest)
				return
			}
		} else {
			var req struct {
				DisplayName *string `json:"display_name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			displayName = req.DisplayName
		}

		if _, err := env.Profiles.Ensure(r.Context(), caller.UID, caller.Username, caller.PhotoURL, caller.Email); err != nil {
			if errors.Is(err, profiles.ErrProfileRequired) {
				http.Error(w, "Profile not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to fetch profile", http.StatusInternalServerError)
			log.Println("UpdateMe error:", err)
			return
		}

		u, err := env.Profiles.Update(r.Context(), caller.UID, displayName, photo)
		switch {
		case errors.Is(err, models.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, "Profile not found", http.StatusNotFound)
			return
		case err != nil:
			http.Error(w, "Failed to update profile", http.StatusInternalServerError)
			log.Println("UpdateMe error:", err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func GetUserById(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identity(w, r); !ok {
			return
		}
		id := mux.Vars(r)["userId"]

		u, err := env.Profiles.Get(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("GetUserById error:", err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// GetUserByUsername is the profile page: the profile plus its spoques.
func GetUserByUsername(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := identity(w, r)
		if !ok {
			return
		}
		username := mux.Vars(r)["username"]

		u, err := env.Profiles.ByUsername(r.Context(), username)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("GetUserByUsername error:", err)
			return
		}

		posts, err := env.Feed.PostsByAuthor(r.Context(), u.ID)
		if err != nil {
			http.Error(w, "Failed to fetch spoques", http.StatusInternalServerError)
			log.Println("GetUserByUsername spoques error:", err)
			return
		}

		writeJSON(w, http.StatusOK, profileResponse{
			User:    u,
			Spoques: env.presentAll(posts, viewer),
		})
	}
}

func SearchUsers(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identity(w, r); !ok {
			return
		}
		query := r.URL.Query().Get("q")
		if query == "" {
			http.Error(w, "Search query 'q' parameter is required", http.StatusBadRequest)
			return
		}

		users, err := env.Profiles.Search(r.Context(), query)
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "Database search failed", http.StatusInternalServerError)
			log.Println("SearchUsers error:", err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}
