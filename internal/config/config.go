package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Backend     BackendConfig
	Breaker     BreakerConfig
	Database    DatabaseConfig
	API         APIConfig
	Promo       PromoConfig
}

type BackendConfig struct {
	BaseURL        string
	Token          string
	AuthScheme     string
	RequestTimeout time.Duration
}

type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

type DatabaseConfig struct {
	EventsEnabled bool
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
}

type APIConfig struct {
	KeyHash string
}

type PromoConfig struct {
	RevealSlots string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	requestTimeout, err := time.ParseDuration(getEnvOrViper("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	openTimeout, err := time.ParseDuration(getEnvOrViper("BREAKER_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BREAKER_OPEN_TIMEOUT: %w", err)
	}
	maxFailures, err := strconv.ParseUint(getEnvOrViper("BREAKER_MAX_FAILURES", "5"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid BREAKER_MAX_FAILURES: %w", err)
	}
	eventsEnabled, err := strconv.ParseBool(getEnvOrViper("EVENTS_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENTS_ENABLED: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		Backend: BackendConfig{
			BaseURL:        getEnvOrViper("BACKEND_BASE_URL", "http://localhost:8000/api"),
			Token:          getEnvOrViper("BACKEND_TOKEN", ""),
			AuthScheme:     getEnvOrViper("AUTH_SCHEME", "Token"),
			RequestTimeout: requestTimeout,
		},
		Breaker: BreakerConfig{
			MaxFailures: uint32(maxFailures),
			OpenTimeout: openTimeout,
		},
		Database: DatabaseConfig{
			EventsEnabled: eventsEnabled,
			Host:          getEnvOrViper("DB_HOST", "localhost"),
			Port:          getEnvOrViper("DB_PORT", "5432"),
			User:          getEnvOrViper("DB_USER", "postgres"),
			Password:      getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:        getEnvOrViper("DB_NAME", "cartsync"),
			SSLMode:       getEnvOrViper("DB_SSLMODE", "disable"),
		},
		API: APIConfig{
			KeyHash: getEnvOrViper("API_KEY_HASH", ""),
		},
		Promo: PromoConfig{
			RevealSlots: getEnvOrViper("REVEAL_SLOTS", ""),
		},
	}

	// Validate required fields
	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if u, err := url.Parse(cfg.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL must be an absolute URL, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Breaker.MaxFailures == 0 {
		return nil, fmt.Errorf("BREAKER_MAX_FAILURES must be positive")
	}
	if cfg.IsProduction() && cfg.API.KeyHash == "" {
		return nil, fmt.Errorf("API_KEY_HASH is required in production")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
