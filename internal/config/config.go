package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	ClinicTimezone string

	// Healthie EHR Configuration
	HealthieEmail    string
	HealthiePassword string
	HealthieAPIToken string
	HealthieBaseURL  string
	HealthieAPIURL   string
	HealthieAdapter  string // "graphql", "browser", or "fake"
	HealthieHeadless bool

	// Voice agent tuning
	FillerDelay time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ClinicTimezone: getEnv("CLINIC_TIMEZONE", "America/New_York"),

		HealthieEmail:    getEnv("HEALTHIE_EMAIL", ""),
		HealthiePassword: getEnv("HEALTHIE_PASSWORD", ""),
		HealthieAPIToken: getEnv("HEALTHIE_API_TOKEN", ""),
		HealthieBaseURL:  getEnv("HEALTHIE_BASE_URL", "https://secure.gethealthie.com"),
		HealthieAPIURL:   getEnv("HEALTHIE_API_URL", "https://api.gethealthie.com/graphql"),
		HealthieAdapter:  strings.ToLower(strings.TrimSpace(getEnv("HEALTHIE_ADAPTER", "browser"))),
		HealthieHeadless: getEnvAsBool("HEALTHIE_HEADLESS", true),

		FillerDelay: getEnvAsDuration("FILLER_DELAY", 1500*time.Millisecond),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
