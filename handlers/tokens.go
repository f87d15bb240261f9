package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"masterboxer.com/project-spoque/auth"
)

// IssueToken exchanges local account credentials for a bearer token.
func IssueToken(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if env.Local == nil {
			http.Error(w, "Local accounts are disabled", http.StatusNotFound)
			return
		}

		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		token, err := env.Local.Login(req.Username, req.Password)
		if errors.Is(err, auth.ErrBadCredentials) {
			http.Error(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		if err != nil {
			http.Error(w, "Failed to issue token", http.StatusInternalServerError)
			log.Println("IssueToken error:", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
