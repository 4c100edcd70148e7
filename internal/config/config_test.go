package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `{
		"database": {"url": "postgres://localhost/barguru"},
		"llm": {"gemini_api_key": "test-key"},
		"quota": {"anonymous_limit": 3}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/barguru", cfg.Database.URL)
	assert.Equal(t, "test-key", cfg.LLM.GeminiAPIKey)
	assert.Equal(t, 3, cfg.Quota.AnonymousLimit)

	// defaults
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.CocktailModel)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.LLM.ImageModel)
	assert.Equal(t, "barguru_session", cfg.Quota.SessionCookie)
	assert.Equal(t, uint(768), cfg.Image.MaxWidth)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{
		"database": {"url": "postgres://file/barguru"},
		"llm": {"gemini_api_key": "file-key"}
	}`)
	t.Setenv("BARGURU_DATABASE_URL", "postgres://env/barguru")
	t.Setenv("BARGURU_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/barguru", cfg.Database.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "file-key", cfg.LLM.GeminiAPIKey)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	path := writeConfig(t, `{"llm": {"gemini_api_key": "k"}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{URL: "postgres://x"},
			LLM:      LLMConfig{Provider: "gemini", GeminiAPIKey: "k"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid gemini", mutate: func(c *Config) {}},
		{name: "missing gemini key", mutate: func(c *Config) { c.LLM.GeminiAPIKey = "" }, wantErr: "gemini_api_key"},
		{name: "local provider", mutate: func(c *Config) { c.LLM.Provider = "local"; c.LLM.LocalURL = "http://localhost:1234" }},
		{name: "local provider without url", mutate: func(c *Config) { c.LLM.Provider = "local" }, wantErr: "local_url"},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "openai" }, wantErr: "unknown llm.provider"},
		{name: "negative quota", mutate: func(c *Config) { c.Quota.AnonymousLimit = -1 }, wantErr: "anonymous_limit"},
		{name: "rate limit without window", mutate: func(c *Config) { c.RateLimit.RedisURL = "redis://localhost:6379"; c.RateLimit.Limit = 5 }, wantErr: "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
