// Package config loads BarGuru configuration from config.json and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Environment string `mapstructure:"environment"`

	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Image     ImageConfig     `mapstructure:"image"`
	Quota     QuotaConfig     `mapstructure:"quota"`
	Clerk     ClerkConfig     `mapstructure:"clerk"`
	PostHog   PostHogConfig   `mapstructure:"posthog"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// TrustedProxies may set X-Forwarded-For. Empty trusts none.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// LLMConfig selects the text backend and the models used for each task.
type LLMConfig struct {
	Provider      string        `mapstructure:"provider"`
	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	CocktailModel string        `mapstructure:"cocktail_model"`
	ChatModel     string        `mapstructure:"chat_model"`
	ImageModel    string        `mapstructure:"image_model"`
	LocalURL      string        `mapstructure:"local_url"`
	LocalModel    string        `mapstructure:"local_model"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type ImageConfig struct {
	MaxWidth uint          `mapstructure:"max_width"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// QuotaConfig bounds free generations for visitors who have not signed in.
type QuotaConfig struct {
	AnonymousLimit int           `mapstructure:"anonymous_limit"`
	SessionCookie  string        `mapstructure:"session_cookie"`
	SessionMaxAge  time.Duration `mapstructure:"session_max_age"`
	SecureCookie   bool          `mapstructure:"secure_cookie"`
}

type ClerkConfig struct {
	SecretKey         string   `mapstructure:"secret_key"`
	JWTKey            string   `mapstructure:"jwt_key"`
	AuthorizedParties []string `mapstructure:"authorized_parties"`
	WebhookSecret     string   `mapstructure:"webhook_secret"`
}

type PostHogConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Host          string        `mapstructure:"host"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RateLimitConfig is disabled when RedisURL is empty.
type RateLimitConfig struct {
	RedisURL string        `mapstructure:"redis_url"`
	Limit    int           `mapstructure:"limit"`
	Window   time.Duration `mapstructure:"window"`
}

// Load reads configuration from the given file (config.json when empty) and
// BARGURU_* environment variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BARGURU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.url", "")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.cocktail_model", "gemini-2.5-flash")
	v.SetDefault("llm.chat_model", "gemini-2.0-flash-exp")
	v.SetDefault("llm.image_model", "gemini-2.5-flash-image")
	v.SetDefault("llm.local_url", "http://localhost:1234/v1/chat/completions")
	v.SetDefault("llm.local_model", "gemma-3-12b-it:2")
	v.SetDefault("llm.timeout", 30*time.Second)

	v.SetDefault("image.max_width", 768)
	v.SetDefault("image.timeout", 60*time.Second)

	v.SetDefault("quota.anonymous_limit", 1)
	v.SetDefault("quota.session_cookie", "barguru_session")
	v.SetDefault("quota.session_max_age", 30*24*time.Hour)
	v.SetDefault("quota.secure_cookie", false)

	v.SetDefault("clerk.secret_key", "")
	v.SetDefault("clerk.jwt_key", "")
	v.SetDefault("clerk.authorized_parties", []string{})
	v.SetDefault("clerk.webhook_secret", "")

	v.SetDefault("posthog.api_key", "")
	v.SetDefault("posthog.host", "https://us.posthog.com")
	v.SetDefault("posthog.flush_interval", 30*time.Second)

	v.SetDefault("sentry.dsn", "")

	v.SetDefault("rate_limit.redis_url", "")
	v.SetDefault("rate_limit.limit", 20)
	v.SetDefault("rate_limit.window", time.Hour)
}

// Validate checks that the settings required to serve requests are present.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return errors.New("llm.gemini_api_key is required for the gemini provider")
		}
	case "local":
		if c.LLM.LocalURL == "" {
			return errors.New("llm.local_url is required for the local provider")
		}
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	if c.Quota.AnonymousLimit < 0 {
		return errors.New("quota.anonymous_limit must not be negative")
	}
	if c.RateLimit.RedisURL != "" && (c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("rate_limit.limit and rate_limit.window must be positive when rate limiting is enabled")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
