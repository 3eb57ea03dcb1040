// Package config loads server configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port             string
	DBPath           string
	DBLogLevel       string // silent, error, warn, info
	LogLevel         string
	LogPretty        bool
	AllowedOrigins   []string
	FrontendDistPath string
	DefaultOwnerID   string

	// Record fetch policy applied around the store
	FetchRateLimit float64 // fetches per second, 0 disables limiting
	FetchBurst     int
	FetchTimeout   time.Duration

	RuleCacheSize     int
	ValuationInterval time.Duration
	TopPerformers     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DBPath:            getEnv("DB_PATH", "./sneaker_tracker.db"),
		DBLogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", false),
		AllowedOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		FrontendDistPath:  getEnv("FRONTEND_DIST_PATH", ""),
		DefaultOwnerID:    getEnv("DEFAULT_OWNER_ID", "default"),
		FetchRateLimit:    getEnvAsFloat("FETCH_RATE_LIMIT", 50),
		FetchBurst:        getEnvAsInt("FETCH_BURST", 10),
		FetchTimeout:      getEnvAsDuration("FETCH_TIMEOUT", 5*time.Second),
		RuleCacheSize:     getEnvAsInt("RULE_CACHE_SIZE", 256),
		ValuationInterval: getEnvAsDuration("VALUATION_INTERVAL", 15*time.Minute),
		TopPerformers:     getEnvAsInt("TOP_PERFORMERS", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required values are present and sane
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.DefaultOwnerID == "" {
		return fmt.Errorf("DEFAULT_OWNER_ID must not be empty")
	}
	if c.FetchRateLimit < 0 {
		return fmt.Errorf("FETCH_RATE_LIMIT must not be negative")
	}
	if c.FetchRateLimit > 0 && c.FetchBurst < 1 {
		return fmt.Errorf("FETCH_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.RuleCacheSize < 1 {
		return fmt.Errorf("RULE_CACHE_SIZE must be at least 1")
	}
	if c.TopPerformers < 1 {
		return fmt.Errorf("TOP_PERFORMERS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
