package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Identity IdentityConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Env  string
	Host string
	Port string
}

// AuthConfig defines the authentication protocol parameters.
type AuthConfig struct {
	// TokenSecret signs session tokens. Loaded once at startup and
	// never mutated at runtime.
	TokenSecret string

	ChallengeTTL   time.Duration
	SessionTTL     time.Duration
	RefreshHorizon time.Duration
	SweepInterval  time.Duration
	BackendTimeout time.Duration
}

// RedisConfig holds the optional Redis connection. When URL is empty
// the service runs single-instance with in-memory stores.
type RedisConfig struct {
	URL string
}

// IdentityConfig points at the upstream identity backend.
type IdentityConfig struct {
	BaseURL string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying
// defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	secret := os.Getenv("AUTH_TOKEN_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("AUTH_TOKEN_SECRET is required")
	}

	cfg := &Config{
		App: AppConfig{
			Env:  getEnv("APP_ENV", "development"),
			Host: getEnv("APP_HOST", "0.0.0.0"),
			Port: getEnv("APP_PORT", "9000"),
		},
		Auth: AuthConfig{
			TokenSecret:    secret,
			ChallengeTTL:   getEnvAsDuration("AUTH_CHALLENGE_TTL_MINUTES", 5) * time.Minute,
			SessionTTL:     getEnvAsDuration("AUTH_SESSION_TTL_HOURS", 7*24) * time.Hour,
			RefreshHorizon: getEnvAsDuration("AUTH_REFRESH_HORIZON_DAYS", 30) * 24 * time.Hour,
			SweepInterval:  getEnvAsDuration("AUTH_SWEEP_INTERVAL_SECONDS", 60) * time.Second,
			BackendTimeout: getEnvAsDuration("IDENTITY_TIMEOUT_SECONDS", 3) * time.Second,
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Identity: IdentityConfig{
			BaseURL: getEnv("IDENTITY_BASE_URL", "http://localhost:8081"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsDuration(key string, fallback int) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return time.Duration(fallback)
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return time.Duration(fallback)
	}
	return time.Duration(parsed)
}
