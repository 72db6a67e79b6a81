package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the concierge chat service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	LogLevel string

	// Storage backend selection. RedisURL wins over DatabaseURL; with
	// neither set the store runs on the in-memory backend.
	RedisURL    string
	DatabaseURL string

	// KeyNamespace prefixes every persisted session key.
	KeyNamespace string

	SessionTTL      time.Duration
	JanitorInterval time.Duration
	HistoryLimit    int

	// CatalogPath optionally points at a JSON catalog file; empty means
	// the compiled-in Kingdom catalog.
	CatalogPath string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "concierge"),
		LogLevel:         envOrDefault("APP_LOG_LEVEL", "info"),
		AllowAnyOrigin:   false,
		RedisURL:         trimmedEnv("REDIS_URL"),
		DatabaseURL:      trimmedEnv("DATABASE_URL"),
		KeyNamespace:     envOrDefault("CHAT_KEY_NAMESPACE", "kingdom-chat"),
		CatalogPath:      trimmedEnv("CHAT_CATALOG_PATH"),
		ShutdownTimeout:  15 * time.Second,
		SessionTTL:       40 * time.Minute,
		JanitorInterval:  time.Minute,
		HistoryLimit:     20,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTTL, err = durationFromEnv("CHAT_SESSION_TTL", cfg.SessionTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.JanitorInterval, err = durationFromEnv("CHAT_JANITOR_INTERVAL", cfg.JanitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryLimit, err = intFromEnv("CHAT_HISTORY_LIMIT", cfg.HistoryLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionTTL < time.Minute {
		return Config{}, fmt.Errorf("CHAT_SESSION_TTL must be at least 1m")
	}
	if cfg.JanitorInterval <= 0 {
		return Config{}, fmt.Errorf("CHAT_JANITOR_INTERVAL must be positive")
	}
	if cfg.HistoryLimit <= 0 {
		return Config{}, fmt.Errorf("CHAT_HISTORY_LIMIT must be positive")
	}
	if strings.TrimSpace(cfg.KeyNamespace) == "" {
		return Config{}, fmt.Errorf("CHAT_KEY_NAMESPACE must not be empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
