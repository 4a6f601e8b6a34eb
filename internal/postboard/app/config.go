package app

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
	"github.com/aussiebroadwan/postboard/pkg/httpx"
)

// Store drivers.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	APIURL          string        // Feed API base URL including the /api prefix (default: http://localhost:8000/api)
	Store           string        // Credential store driver: file, sqlite, memory (default: file)
	StorePath       string        // Optional: credential store location (default: under the user config dir)
	StorePassphrase string        // Optional: seals the file store with AES-GCM
	HTTPTimeout     time.Duration // Per-request timeout (default: 10s)
	RefreshLeeway   time.Duration // Refresh JWTs this close to expiry before sending (default: 30s)
	ClientLimit     httpx.RateLimitConfig
	Env             string // Environment (dev, prod) (default: prod)
	LogLevel        string // Log level (debug, info, warn, error) (default: warn)
	LogFormat       string // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	cfg := Config{
		APIURL:          getEnvOrDefault("POSTBOARD_API_URL", "http://localhost:8000/api"),
		Store:           getEnvOrDefault("POSTBOARD_STORE", StoreFile),
		StorePath:       os.Getenv("POSTBOARD_STORE_PATH"),
		StorePassphrase: os.Getenv("POSTBOARD_STORE_PASSPHRASE"),
		HTTPTimeout:     getEnvDurationOrDefault("POSTBOARD_HTTP_TIMEOUT", 10*time.Second),
		RefreshLeeway:   getEnvDurationOrDefault("POSTBOARD_REFRESH_LEEWAY", feedsdk.DefaultRefreshLeeway),
		ClientLimit:     httpx.ParseRateLimitFromEnv("CLIENT", httpx.ClientLimit),
		Env:             getEnvOrDefault("ENV", "prod"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat:       getEnvOrDefault("LOG_FORMAT", "text"),
	}

	if cfg.StorePath == "" {
		cfg.StorePath = defaultStorePath(cfg.Store)
	}

	return cfg
}

// defaultStorePath puts credentials under the user's config directory,
// falling back to the working directory.
func defaultStorePath(driver string) string {
	name := "credentials.json"
	if driver == StoreSQLite {
		name = "credentials.db"
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "postboard", name)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "10s", "1m")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
