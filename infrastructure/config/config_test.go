package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("TAVILY_API_KEY", "tavily-key")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 3, cfg.MaxSearchResults)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_MaxSearchResultsClamped(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_SEARCH_RESULTS", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, maxSearchResultsCap, cfg.MaxSearchResults)
}

func TestValidate_MaxSearchResultsBounds(t *testing.T) {
	cfg := &Config{
		GeminiAPIKey:     "g",
		TavilyAPIKey:     "t",
		JWTSecret:        "s",
		MaxSearchResults: 3,
	}
	require.NoError(t, cfg.Validate())

	cfg.MaxSearchResults = 0
	assert.Error(t, cfg.Validate())

	cfg.MaxSearchResults = 4
	assert.Error(t, cfg.Validate())
}

func TestValidate_ProductionRequiresDSN(t *testing.T) {
	cfg := &Config{
		GeminiAPIKey:     "g",
		TavilyAPIKey:     "t",
		JWTSecret:        "s",
		MaxSearchResults: 3,
		Environment:      "production",
	}
	assert.Error(t, cfg.Validate())

	cfg.DatabaseDSN = "postgres://localhost/loupe"
	assert.NoError(t, cfg.Validate())
}
