package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string

	// Analytics provider settings. CredentialsFile points at the service
	// account JSON key; ViewID identifies the reporting view/property.
	// Both are required at startup.
	CredentialsFile string
	ViewID          string

	RedisURL string
}

// Load loads configuration from environment variables. Missing analytics
// credentials or view ID is a fatal configuration error, not something
// to recover from at runtime.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Environment:     getEnv("ENVIRONMENT", "production"),
		CredentialsFile: getEnv("GA_CREDENTIALS_FILE", ""),
		ViewID:          getEnv("GA_VIEW_ID", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
	}

	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("GA_CREDENTIALS_FILE is required")
	}
	if cfg.ViewID == "" {
		return nil, fmt.Errorf("GA_VIEW_ID is required")
	}

	return cfg, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
