// Package app wires configuration into stores, services and handlers.
package app

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"masterboxer.com/project-spoque/auth"
	"masterboxer.com/project-spoque/calendar"
	"masterboxer.com/project-spoque/clock"
	"masterboxer.com/project-spoque/config"
	"masterboxer.com/project-spoque/database"
	"masterboxer.com/project-spoque/feed"
	"masterboxer.com/project-spoque/handlers"
	"masterboxer.com/project-spoque/likes"
	"masterboxer.com/project-spoque/profiles"
	"masterboxer.com/project-spoque/services"
	"masterboxer.com/project-spoque/store"
	"masterboxer.com/project-spoque/store/firestore"
	"masterboxer.com/project-spoque/store/localfs"
	"masterboxer.com/project-spoque/store/memory"
	"masterboxer.com/project-spoque/store/postgres"
	"masterboxer.com/project-spoque/upload"
)

type App struct {
	Env      *handlers.Env
	Provider auth.Provider
	// Media serves locally stored blobs; nil when blobs live in Firebase.
	Media http.Handler

	closers []func()
}

type backend struct {
	prompts store.PromptRepo
	posts   store.PostRepo
	users   store.UserRepo
	blobs   store.BlobRepo
	media   http.Handler
}

// Build connects every backend the configuration selects.
func Build(cfg *config.Config) (*App, error) {
	a := &App{}
	clk := clock.Real()

	var notifier services.Notifier = services.LogNotifier{}
	if cfg.FirebaseCredentialsPath != "" {
		err := services.InitFirebase(cfg.FirebaseCredentialsPath, cfg.FirebaseStorageBucket)
		switch {
		case err != nil && cfg.UsesFirebase():
			return nil, fmt.Errorf("init firebase: %w", err)
		case err != nil:
			log.Printf("[FCM] Push disabled: %v", err)
		default:
			a.closers = append(a.closers, services.CloseFirebase)
			if client, err := services.GetMessagingClient(); err == nil {
				notifier = services.NewFCMNotifier(client)
			}
		}
	}

	b, err := a.backend(cfg, clk)
	if err != nil {
		a.Close()
		return nil, err
	}

	provider, local, err := buildAuth(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	cal := calendar.New(clk, cfg.Location())
	svc := feed.NewService(b.prompts, b.posts, cal)

	a.Env = &handlers.Env{
		Feed:          svc,
		Likes:         likes.NewLedger(b.posts),
		Upload:        upload.NewPipeline(b.blobs, b.posts, clk),
		Profiles:      profiles.NewService(b.users, b.blobs, clk),
		Notifier:      notifier,
		LikeLimiter:   services.NewUserLimiter(cfg.LikeRatePerSec, cfg.LikeBurst),
		Clock:         clk,
		Local:         local,
		Admins:        auth.ParseAdmins(cfg.AdminUIDs),
		CronSecret:    cfg.CronSecret,
		PublicBaseURL: cfg.PublicBaseURL,
	}
	a.Provider = provider
	a.Media = b.media

	log.Printf("[App] storage=%s auth=%s timezone=%s", cfg.StorageBackend, cfg.AuthProvider, cfg.Timezone)
	return a, nil
}

func (a *App) backend(cfg *config.Config, clk clock.Clock) (*backend, error) {
	switch cfg.StorageBackend {
	case config.BackendFirebase:
		client, err := services.GetFirestoreClient()
		if err != nil {
			return nil, err
		}
		bucket, err := services.GetStorageBucket()
		if err != nil {
			return nil, fmt.Errorf("FIREBASE_STORAGE_BUCKET is required for the firebase backend: %w", err)
		}
		s := firestore.New(client)
		return &backend{prompts: s, posts: s, users: s, blobs: firestore.NewBlobs(bucket)}, nil

	case config.BackendPostgres:
		db, err := database.ConnectDB(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { closeDB(db) })
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		blobs, err := localfs.New(cfg.MediaDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		s := postgres.New(db)
		return &backend{prompts: s, posts: s, users: s, blobs: blobs, media: blobs.Handler()}, nil

	default:
		blobs, err := localfs.New(cfg.MediaDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		s := memory.New(clk)
		return &backend{prompts: s, posts: s, users: s, blobs: blobs, media: blobs.Handler()}, nil
	}
}

func buildAuth(cfg *config.Config) (auth.Provider, *auth.LocalProvider, error) {
	if cfg.AuthProvider == config.AuthFirebase {
		client, err := services.GetAuthClient()
		if err != nil {
			return nil, nil, err
		}
		return auth.NewFirebaseProvider(client), nil, nil
	}

	users, err := auth.ParseUsers(cfg.LocalUsers)
	if err != nil {
		return nil, nil, fmt.Errorf("LOCAL_USERS: %w", err)
	}
	local, err := auth.NewLocalProvider(cfg.JWTSecret, users)
	if err != nil {
		return nil, nil, err
	}
	return local, local, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Printf("[DB] close: %v", err)
	}
}
