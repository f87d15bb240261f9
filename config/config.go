// Package config loads process settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendFirebase = "firebase"

	AuthLocal    = "local"
	AuthFirebase = "firebase"
)

type Config struct {
	Port                    string
	StorageBackend          string
	DatabaseURL             string
	FirebaseCredentialsPath string
	FirebaseStorageBucket   string
	AuthProvider            string
	JWTSecret               string
	LocalUsers              string
	AdminUIDs               string
	CronSecret              string
	Timezone                string
	PublicBaseURL           string
	MediaDir                string
	LikeRatePerSec          float64
	LikeBurst               int
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORAGE_BACKEND", BackendMemory)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	v.SetDefault("FIREBASE_STORAGE_BUCKET", "")
	v.SetDefault("AUTH_PROVIDER", AuthLocal)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("LOCAL_USERS", "")
	v.SetDefault("ADMIN_UIDS", "")
	v.SetDefault("CRON_SECRET", "")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("MEDIA_DIR", "media")
	v.SetDefault("LIKE_RATE_PER_SEC", 2.0)
	v.SetDefault("LIKE_BURST", 5)
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Config] Ignoring .env: %v", err)
	}

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                    v.GetString("PORT"),
		StorageBackend:          strings.ToLower(v.GetString("STORAGE_BACKEND")),
		DatabaseURL:             v.GetString("DATABASE_URL"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		FirebaseStorageBucket:   v.GetString("FIREBASE_STORAGE_BUCKET"),
		AuthProvider:            strings.ToLower(v.GetString("AUTH_PROVIDER")),
		JWTSecret:               v.GetString("JWT_SECRET"),
		LocalUsers:              v.GetString("LOCAL_USERS"),
		AdminUIDs:               v.GetString("ADMIN_UIDS"),
		CronSecret:              v.GetString("CRON_SECRET"),
		Timezone:                v.GetString("TIMEZONE"),
		PublicBaseURL:           strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		MediaDir:                v.GetString("MEDIA_DIR"),
		LikeRatePerSec:          v.GetFloat64("LIKE_RATE_PER_SEC"),
		LikeBurst:               v.GetInt("LIKE_BURST"),
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s backend", c.StorageBackend)
		}
	case BackendFirebase:
		if c.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required for the %s backend", c.StorageBackend)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.AuthProvider {
	case AuthLocal:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for local auth")
		}
	case AuthFirebase:
		if c.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required for firebase auth")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured calendar timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UsesFirebase reports whether any component needs the Firebase app.
func (c *Config) UsesFirebase() bool {
	return c.StorageBackend == BackendFirebase || c.AuthProvider == AuthFirebase
}
