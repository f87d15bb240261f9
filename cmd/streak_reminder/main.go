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
		log.Fatal("StreakReminder: invalid configuration: ", err)
	}
	if cfg.FirebaseCredentialsPath == "" {
		log.Fatal("FIREBASE_CREDENTIALS_PATH not set")
	}

	a, err := app.Build(cfg)
	if err != nil {
		log.Fatal("StreakReminder: startup failed: ", err)
	}
	defer a.Close()

	log.Println("🔥 Running streak reminder job")
	if _, err := handlers.SendStreakReminders(context.Background(), a.Env.Feed, a.Env.Notifier); err != nil {
		log.Printf("StreakReminder: %v", err)
	}
	log.Println("✅ Streak reminder job finished")
}
