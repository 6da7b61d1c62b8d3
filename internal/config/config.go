package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the StayHub services.
type Config struct {
	AppPort         int
	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	DataDir         string
	LogLevel        string

	AuthRateRequests int
	AuthRateWindow   time.Duration
	AuthRateBurst    int

	IdentityPort     int
	DatabaseURL      string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
}

// Load reads configuration from environment variables, applying sensible defaults
// for local development while allowing overrides through environment variables.
// A .env file in the working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppPort:         getInt("STAYHUB_PORT", 8080),
		UpstreamBaseURL: getString("STAYHUB_UPSTREAM_URL", "http://localhost:5001/api"),
		UpstreamTimeout: getDuration("STAYHUB_UPSTREAM_TIMEOUT", 15*time.Second),
		DataDir:         getString("STAYHUB_DATA_DIR", ".stayhub"),
		LogLevel:        getString("STAYHUB_LOG_LEVEL", "info"),

		AuthRateRequests: getInt("STAYHUB_AUTH_RATE_REQUESTS", 10),
		AuthRateWindow:   getDuration("STAYHUB_AUTH_RATE_WINDOW", time.Minute),
		AuthRateBurst:    getInt("STAYHUB_AUTH_RATE_BURST", 5),

		IdentityPort:    getInt("STAYHUB_IDENTITY_PORT", 5001),
		DatabaseURL:     getString("STAYHUB_DATABASE_URL", ""),
		AccessTokenTTL:  getDuration("STAYHUB_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("STAYHUB_REFRESH_TOKEN_TTL", 720*time.Hour),
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
