// Package config loads batch matcher configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application settings
	AppEnv  string
	AppPort int

	// Database settings
	DatabaseURL                string
	DatabaseMaxConnections     int
	DatabaseMaxIdleConnections int
	DatabaseConnectionLifetime time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// NATS settings
	NATSURL string

	// Matching engine settings
	PreferredPageSize int           // chunk bound, max ids per preferred-invoice page
	FlushBatchSize    int           // flush bound, max match records per insert
	BillConcurrency   int           // bounded worker-pool size for parallel bill processing
	BillTimeout       time.Duration // per-bill deadline; 0 disables
	ResultsExportDir  string        // optional directory for exported batch result files
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnvAsInt("APP_PORT", 8080),

		DatabaseURL:                getEnv("DATABASE_URL", ""),
		DatabaseMaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 25),
		DatabaseMaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		DatabaseConnectionLifetime: getEnvAsDuration("DATABASE_CONNECTION_LIFETIME", 5*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		NATSURL: getEnv("NATS_URL", "nats://localhost:4222"),

		PreferredPageSize: getEnvAsInt("MATCH_PREFERRED_PAGE_SIZE", 1000),
		FlushBatchSize:    getEnvAsInt("MATCH_FLUSH_BATCH_SIZE", 1000),
		BillConcurrency:   getEnvAsInt("MATCH_BILL_CONCURRENCY", 8),
		BillTimeout:       getEnvAsDuration("MATCH_BILL_TIMEOUT", 0),
		ResultsExportDir:  getEnv("MATCH_RESULTS_EXPORT_DIR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.PreferredPageSize <= 0 || c.PreferredPageSize > 1000 {
		return fmt.Errorf("MATCH_PREFERRED_PAGE_SIZE must be in (0, 1000]")
	}
	if c.FlushBatchSize <= 0 || c.FlushBatchSize > 1000 {
		return fmt.Errorf("MATCH_FLUSH_BATCH_SIZE must be in (0, 1000]")
	}
	if c.BillConcurrency <= 0 {
		return fmt.Errorf("MATCH_BILL_CONCURRENCY must be positive")
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
