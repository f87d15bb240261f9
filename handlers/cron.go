package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"
	"time"

	"masterboxer.com/project-spoque/auth"
)

// RotateFeed is the scheduled maintenance hook. Day partitioning is derived
// from the calendar on every read, so it only acknowledges.
func RotateFeed(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r)
		if !ok || env.CronSecret == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(env.CronSecret)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		now := env.Clock.Now().UTC()
		log.Printf("[Cron] Feed rotation for %s at %s", env.Feed.Today(), now.Format(time.RFC3339))

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"message":   "Feed rotation complete",
			"timestamp": now.Format(time.RFC3339),
		})
	}
}

func Health(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"date":   env.Feed.Today(),
		})
	}
}
