// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string of the trip store. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// Auth configures the hosted identity provider.
	Auth AuthConfig

	// OpenAI configures the assistant. An empty APIKey leaves the assistant
	// on its canned replies.
	OpenAI OpenAIConfig

	// SessionTTL is how long an idle user's itinerary stays in memory. Defaults to 30m.
	SessionTTL time.Duration

	// Sync tunes how local changes are pushed to the trip store.
	Sync SyncConfig

	// MaxTripDays is the longest trip, in days, that can be created. Defaults to 366.
	MaxTripDays int
}

type AuthConfig struct {
	URL       string // AUTH_URL, base URL of the provider
	AnonKey   string // AUTH_ANON_KEY, sent as the apikey header
	JWTSecret string // AUTH_JWT_SECRET, HS256 key of access tokens. Required.
}

type OpenAIConfig struct {
	APIKey  string // OPENAI_API_KEY
	Model   string // OPENAI_MODEL, defaults to gpt-3.5-turbo
	BaseURL string // OPENAI_BASE_URL, empty for the public API
}

type SyncConfig struct {
	MaxRetries uint64        // SYNC_MAX_RETRIES, retries after the first attempt. Defaults to 3.
	Backoff    time.Duration // SYNC_BACKOFF, first retry delay. Defaults to 200ms.
	Timeout    time.Duration // SYNC_TIMEOUT, per mutation across all attempts. Defaults to 15s.
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or the
// first optional variable that does not parse.
func Load() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		Auth: AuthConfig{
			URL:     getEnv("AUTH_URL", "http://localhost:54321"),
			AnonKey: os.Getenv("AUTH_ANON_KEY"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.Auth.JWTSecret = os.Getenv("AUTH_JWT_SECRET")
	if cfg.Auth.JWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.MaxBodyBytes, err = getInt("MAX_BODY_BYTES", 1<<20); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	retries, err := getInt("SYNC_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, err
	}
	cfg.Sync.MaxRetries = uint64(retries)
	if cfg.Sync.Backoff, err = getDuration("SYNC_BACKOFF", 200*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.Sync.Timeout, err = getDuration("SYNC_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	maxDays, err := getInt("MAX_TRIP_DAYS", 366)
	if err != nil {
		return Config{}, err
	}
	if maxDays < 1 {
		return Config{}, fmt.Errorf("MAX_TRIP_DAYS must be at least 1, got %d", maxDays)
	}
	cfg.MaxTripDays = int(maxDays)

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getInt parses a non-negative integer variable.
func getInt(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

// getDuration parses a positive time.Duration variable such as "250ms".
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
