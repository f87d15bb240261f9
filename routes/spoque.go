package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"masterboxer.com/project-spoque/auth"
	"masterboxer.com/project-spoque/handlers"
)

func CreateSpoqueRoutes(env *handlers.Env, provider auth.Provider, router *mux.Router) *mux.Router {
	authed := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(provider)(h)
	}

	router.HandleFunc("/prompts/today", handlers.GetTodaysPrompt(env)).Methods("GET")
	router.HandleFunc("/prompts/{date}", handlers.GetPromptByDate(env)).Methods("GET")
	router.Handle("/prompts/{date}", authed(handlers.SetPrompt(env))).Methods("PUT")

	router.Handle("/spoques/today", authed(handlers.GetTodaysFeed(env))).Methods("GET")
	router.Handle("/spoques/posted-today", authed(handlers.GetPostedToday(env))).Methods("GET")
	router.Handle("/spoques/date/{date}", authed(handlers.GetSpoquesByDate(env))).Methods("GET")
	router.Handle("/spoques", authed(handlers.CreateSpoque(env))).Methods("POST")
	router.Handle("/spoques/{id}", authed(handlers.GetSpoque(env))).Methods("GET")
	router.Handle("/spoques/{id}/like", authed(handlers.ToggleLike(env))).Methods("POST")

	router.Handle("/users", authed(handlers.CreateUser(env))).Methods("POST")
	router.Handle("/users/me", authed(handlers.GetMe(env))).Methods("GET")
	router.Handle("/users/me", authed(handlers.UpdateMe(env))).Methods("PUT")
	router.Handle("/users/search", authed(handlers.SearchUsers(env))).Methods("GET")
	router.Handle("/users/by-username/{username}", authed(handlers.GetUserByUsername(env))).Methods("GET")
	router.Handle("/users/{userId}", authed(handlers.GetUserById(env))).Methods("GET")
	router.Handle("/users/{userId}/spoques", authed(handlers.GetSpoquesByUser(env))).Methods("GET")

	router.HandleFunc("/spoque/{id}", handlers.GetSpoque(env)).Methods("GET")

	return router
}

func CreateSystemRoutes(env *handlers.Env, router *mux.Router) *mux.Router {
	router.HandleFunc("/health", handlers.Health(env)).Methods("GET")
	router.HandleFunc("/api/cron/rotate-feed", handlers.RotateFeed(env)).Methods("GET")
	router.HandleFunc("/auth/token", handlers.IssueToken(env)).Methods("POST")

	return router
}
