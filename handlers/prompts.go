package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"masterboxer.com/project-spoque/models"
)

// GetTodaysPrompt answers 204 when no prompt has been set for today.
func GetTodaysPrompt(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prompt, err := env.Feed.TodaysPrompt(r.Context())
		if err != nil {
			http.Error(w, "Failed to fetch prompt", http.StatusInternalServerError)
			log.Printf("GetTodaysPrompt error: %v", err)
			return
		}
		if prompt == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, prompt)
	}
}

func GetPromptByDate(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := mux.Vars(r)["date"]

		prompt, err := env.Feed.PromptByDate(r.Context(), date)
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "Failed to fetch prompt", http.StatusInternalServerError)
			log.Printf("GetPromptByDate error: %v", err)
			return
		}
		if prompt == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, prompt)
	}
}

// SetPrompt creates or replaces the prompt for today or a future date.
// Admins only.
func SetPrompt(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity(w, r)
		if !ok {
			return
		}
		if !env.Admins.Allows(id) {
			http.Error(w, "Only admins can set prompts", http.StatusForbidden)
			return
		}

		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		date := mux.Vars(r)["date"]
		if date == "today" {
			date = ""
		}

		prompt, err := env.Feed.SetPrompt(r.Context(), date, req.Prompt, id.UID)
		if errors.Is(err, models.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "Failed to set prompt", http.StatusInternalServerError)
			log.Printf("SetPrompt error: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, prompt)
	}
}
