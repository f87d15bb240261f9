package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	"masterboxer.com/project-spoque/auth"
	"masterboxer.com/project-spoque/handlers"
)

// NewRouter registers every route and wraps the router with request ids,
// access logging and panic recovery. media may be nil.
func NewRouter(env *handlers.Env, provider auth.Provider, media http.Handler) http.Handler {
	router := mux.NewRouter()

	CreateSystemRoutes(env, router)
	CreateSpoqueRoutes(env, provider, router)
	if media != nil {
		router.PathPrefix("/media/").Handler(media).Methods("GET", "HEAD")
	}

	var h http.Handler = router
	h = middleware.Recoverer(h)
	h = middleware.Logger(h)
	h = middleware.RequestID(h)
	return h
}
