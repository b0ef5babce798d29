// Package config provides application configuration management.
// It loads settings from environment variables (and an optional .env file)
// and provides defaults for the server, matching, rate limiting and
// optional integrations.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ValidationMode selects which settings must be present.
type ValidationMode int

const (
	// ServerMode requires LINE credentials and the support channel id.
	ServerMode ValidationMode = iota
	// ToolMode is used by offline CLIs (probe, data verification) that never
	// talk to LINE.
	ToolMode
)

// String returns the mode name.
func (m ValidationMode) String() string {
	switch m {
	case ServerMode:
		return "server"
	case ToolMode:
		return "tool"
	default:
		return "unknown"
	}
}

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	BotAuthToken     string // LINE channel access token
	BotChannelSecret string // Webhook signature secret
	SupportChannelID string // Group or room the bot answers in
	SenderName       string // Optional display name on replies

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Matching Configuration
	MatchStrategy string // "keyword" (default) or "fuzzy"
	CatalogPath   string // Optional FAQ catalog file, overrides embedded data
	SynonymsPath  string // Optional synonym table file, overrides embedded data

	// Rate Limits
	RateLimit RateLimitConfig

	// R2 data files (optional)
	R2 R2Config

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Sentry (optional, empty DSN disables)
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack log shipping (optional, empty token disables)
	BetterStackToken    string
	BetterStackEndpoint string
}

// RateLimitConfig holds per-user and per-channel throttling settings.
type RateLimitConfig struct {
	MaxMessages   int           // Messages per user per window (default: 10)
	Window        time.Duration // Fixed window length (default: 60s)
	Cooldown      time.Duration // Minimum gap between replies in the channel (default: 3s, 0 = disabled)
	SweepInterval time.Duration // How often stale entries are evicted (default: 5m)
	GlobalRPS     float64       // Outbound LINE API calls per second (default: 80)

	RedisAddr     string // Empty = in-memory state
	RedisPassword string
	RedisDB       int
}

// UsesRedis reports whether rate state is shared through Redis.
func (r RateLimitConfig) UsesRedis() bool {
	return r.RedisAddr != ""
}

// R2Config holds Cloudflare R2 settings for loading data files.
type R2Config struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	CatalogKey      string // Object key of the FAQ catalog (".zst" suffix = zstd compressed)
	SynonymsKey     string // Object key of the synonym table
}

// Load reads configuration for the server.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables.
// It attempts to load .env file first, then reads from env vars.
func LoadForMode(mode ValidationMode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// LINE Bot Configuration
		BotAuthToken:     getEnv(EnvBotAuthToken, ""),
		BotChannelSecret: getEnv(EnvBotChannelSecret, ""),
		SupportChannelID: getEnv(EnvSupportChannelID, ""),
		SenderName:       getEnv(EnvBotSenderName, ""),

		// Server Configuration
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		// Matching Configuration
		MatchStrategy: strings.ToLower(getEnv(EnvMatchStrategy, "keyword")),
		CatalogPath:   getEnv(EnvFAQCatalogPath, ""),
		SynonymsPath:  getEnv(EnvFAQSynonymsPath, ""),

		RateLimit: RateLimitConfig{
			MaxMessages:   getIntEnv(EnvRateLimitMaxMessages, 10),
			Window:        getMillisEnv(EnvRateLimitWindowMS, time.Minute),
			Cooldown:      getMillisEnv(EnvReplyCooldownMS, 3*time.Second),
			SweepInterval: getDurationEnv(EnvRateLimitSweepInterval, RateLimitSweep),
			GlobalRPS:     getFloatEnv(EnvGlobalRateRPS, 80.0),
			RedisAddr:     getEnv(EnvRateLimitRedisAddr, ""),
			RedisPassword: getEnv(EnvRateLimitRedisPassword, ""),
			RedisDB:       getIntEnv(EnvRateLimitRedisDB, 0),
		},

		R2: R2Config{
			Enabled:         getBoolEnv(EnvR2Enabled, false),
			AccountID:       getEnv(EnvR2AccountID, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
			CatalogKey:      getEnv(EnvR2CatalogKey, "faq/catalog.yaml.zst"),
			SynonymsKey:     getEnv(EnvR2SynonymsKey, "faq/synonyms.yaml.zst"),
		},

		// Metrics Authentication
		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),
	}

	// Validate configuration
	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks if required configuration values are set.
// All problems are reported together.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if mode == ServerMode {
		if c.BotAuthToken == "" {
			errs = append(errs, errors.New(EnvBotAuthToken+" is required"))
		}
		if c.BotChannelSecret == "" {
			errs = append(errs, errors.New(EnvBotChannelSecret+" is required"))
		}
		if c.SupportChannelID == "" {
			errs = append(errs, errors.New(EnvSupportChannelID+" is required"))
		}
		if c.Port == "" {
			errs = append(errs, errors.New(EnvPort+" is required"))
		}
	}

	switch c.MatchStrategy {
	case "keyword", "fuzzy":
	default:
		errs = append(errs, fmt.Errorf("%s must be keyword or fuzzy, got %q", EnvMatchStrategy, c.MatchStrategy))
	}

	if err := c.RateLimit.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rate limit: %w", err))
	}
	if c.R2.Enabled {
		if err := c.R2.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("r2: %w", err))
		}
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", EnvSentrySampleRate, c.SentrySampleRate))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the rate limit settings.
func (r RateLimitConfig) Validate() error {
	var errs []error
	if r.MaxMessages <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvRateLimitMaxMessages, r.MaxMessages))
	}
	if r.Window <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvRateLimitWindowMS, r.Window))
	}
	if r.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvReplyCooldownMS, r.Cooldown))
	}
	if r.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvRateLimitSweepInterval, r.SweepInterval))
	}
	if r.GlobalRPS <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvGlobalRateRPS, r.GlobalRPS))
	}
	if r.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvRateLimitRedisDB, r.RedisDB))
	}
	return errors.Join(errs...)
}

// Validate checks that R2 credentials and keys are complete.
func (r R2Config) Validate() error {
	var errs []error
	required := []struct{ key, value string }{
		{EnvR2AccountID, r.AccountID},
		{EnvR2AccessKeyID, r.AccessKeyID},
		{EnvR2SecretAccessKey, r.SecretAccessKey},
		{EnvR2BucketName, r.BucketName},
	}
	for _, field := range required {
		if field.value == "" {
			errs = append(errs, errors.New(field.key+" is required when "+EnvR2Enabled+" is set"))
		}
	}
	if r.CatalogKey == "" && r.SynonymsKey == "" {
		errs = append(errs, fmt.Errorf("at least one of %s or %s is required", EnvR2CatalogKey, EnvR2SynonymsKey))
	}
	return errors.Join(errs...)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getMillisEnv reads an integer millisecond count as a duration.
func getMillisEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
