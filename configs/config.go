package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	Port        string
	Environment string
	APIKey      string

	GeminiAPIKey    string
	GeminiModel     string
	MaxOutputTokens int

	ResponseShape           string
	EnableModelComparison   bool
	ConservativeTemperature float64
	CreativeTemperature     float64

	UsageLogPath string

	AdminUsername string
	AdminPassword string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		APIKey:      getEnv("API_KEY", "default_secret_key"),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		MaxOutputTokens: getEnvInt("GEMINI_MAX_OUTPUT_TOKENS", 1000),

		ResponseShape:           getEnv("ADVISORY_RESPONSE_SHAPE", "json"),
		EnableModelComparison:   getEnvBool("ENABLE_MODEL_COMPARISON", true),
		ConservativeTemperature: getEnvFloat("CONSERVATIVE_TEMPERATURE", 0.3),
		CreativeTemperature:     getEnvFloat("CREATIVE_TEMPERATURE", 0.7),

		UsageLogPath: getEnv("USAGE_LOG_PATH", "agronova_logs.csv"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
