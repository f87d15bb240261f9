package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"masterboxer.com/project-spoque/app"
	"masterboxer.com/project-spoque/config"
	"masterboxer.com/project-spoque/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Server: invalid configuration: ", err)
	}

	a, err := app.Build(cfg)
	if err != nil {
		log.Fatal("Server: startup failed: ", err)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(a.Env, a.Provider, a.Media),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server: ", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server: shutdown: %v", err)
	}
	log.Println("✅ Server stopped")
}
