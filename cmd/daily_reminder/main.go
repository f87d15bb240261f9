package main

import (
	"context"
	"log"

	"masterboxer.com/project-spoque/app"
	"masterboxer.com/project-spoque/config"
	"masterboxer.com/project-spoque/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("DailyReminder: invalid configuration: ", err)
	}
	if cfg.FirebaseCredentialsPath == "" {
		log.Fatal("FIREBASE_CREDENTIALS_PATH not set")
	}

	a, err := app.Build(cfg)
	if err != nil {
		log.Fatal("DailyReminder: startup failed: ", err)
	}
	defer a.Close()

	log.Println("⏰ Running daily prompt job")
	if err := handlers.SendDailyPromptNotification(context.Background(), a.Env.Feed, a.Env.Notifier); err != nil {
		log.Printf("DailyReminder: %v", err)
	}
	log.Println("✅ Daily prompt job finished")
}
