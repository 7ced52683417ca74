// Package config loads settings for the server, worker, and CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds server and worker configuration.
type Config struct {
	DatabaseURL       string
	ServerPort        string
	FrontendURL       string
	RedisURL          string
	RateLimit         string
	RabbitMQURL       string
	RabbitMQPrefetch  int
	OIDCIssuer        string
	OIDCJWKSURL       string
	OIDCAudience      string
	EnableHSTS        bool
	OTELEnabled       bool
	OTELEndpoint      string
	ServerDebugMode   bool
	WorkerDebugMode   bool
	StreakRollupDelay time.Duration
	DLQRetention      time.Duration
	DLQGCInterval     time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RateLimit:         getEnv("RATE_LIMIT", "10-S"),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:  getEnvInt("RABBITMQ_PREFETCH", 4),
		OIDCIssuer:        strings.TrimRight(getEnv("OIDC_ISSUER", ""), "/"),
		OIDCJWKSURL:       getEnv("OIDC_JWKS_URL", ""),
		OIDCAudience:      getEnv("OIDC_AUDIENCE", ""),
		EnableHSTS:        getEnvBool("ENABLE_HSTS", false),
		OTELEnabled:       getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServerDebugMode:   getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode:   getEnvBool("WORKER_DEBUG_MODE", false),
		StreakRollupDelay: getEnvDuration("STREAK_ROLLUP_DELAY", 5*time.Second),
		DLQRetention:      getEnvDuration("DLQ_RETENTION", 24*time.Hour),
		DLQGCInterval:     getEnvDuration("DLQ_GC_INTERVAL", time.Hour),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RabbitMQPrefetch < 1 {
		return nil, fmt.Errorf("RABBITMQ_PREFETCH must be at least 1, got %d", cfg.RabbitMQPrefetch)
	}

	return cfg, nil
}

// RequireIssuer reports a missing OIDC_ISSUER. Only the server verifies tokens.
func (c *Config) RequireIssuer() error {
	if c.OIDCIssuer == "" {
		return fmt.Errorf("OIDC_ISSUER is required")
	}
	return nil
}

// RollupsEnabled reports whether a job queue is configured.
func (c *Config) RollupsEnabled() bool {
	return c.RabbitMQURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
	}
	return defaultValue
}
