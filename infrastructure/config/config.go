// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// maxSearchResultsCap bounds MAX_SEARCH_RESULTS; each search result
// fans out into an embedding call.
const maxSearchResultsCap = 3

// Config holds all application configuration
type Config struct {
	// Server
	ServerAddress string
	Environment   string // development, staging, production
	EnableCORS    bool

	// Database. Empty DSN selects the in-memory store.
	DatabaseDSN string

	// Gemini
	GeminiAPIKey          string
	GeminiBaseURL         string
	GeminiEmbeddingModel  string
	GeminiGenerationModel string

	// Tavily
	TavilyAPIKey     string
	TavilyBaseURL    string
	MaxSearchResults int

	// Auth
	JWTSecret string
	JWTIssuer string

	// Timeouts
	ExternalTimeout time.Duration
	ShutdownTimeout time.Duration

	// Logging
	LogLevel string
}

// Load reads configuration from the environment. A .env file is loaded
// first when present, without overriding real environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress:         getEnv("SERVER_ADDRESS", ":8080"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		EnableCORS:            getEnvBool("ENABLE_CORS", true),
		DatabaseDSN:           getEnv("DATABASE_DSN", ""),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:         getEnv("GEMINI_BASE_URL", ""),
		GeminiEmbeddingModel:  getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		GeminiGenerationModel: getEnv("GEMINI_GENERATION_MODEL", "gemini-2.0-flash"),
		TavilyAPIKey:          getEnv("TAVILY_API_KEY", ""),
		TavilyBaseURL:         getEnv("TAVILY_BASE_URL", ""),
		MaxSearchResults:      getEnvInt("MAX_SEARCH_RESULTS", 3),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		JWTIssuer:             getEnv("JWT_ISSUER", ""),
		ExternalTimeout:       getEnvDuration("EXTERNAL_TIMEOUT", 30*time.Second),
		ShutdownTimeout:       getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}

	if cfg.MaxSearchResults > maxSearchResultsCap {
		cfg.MaxSearchResults = maxSearchResultsCap
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.TavilyAPIKey == "" {
		return fmt.Errorf("TAVILY_API_KEY is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required in production")
	}
	if c.MaxSearchResults < 1 || c.MaxSearchResults > maxSearchResultsCap {
		return fmt.Errorf("MAX_SEARCH_RESULTS must be between 1 and %d", maxSearchResultsCap)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
