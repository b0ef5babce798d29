// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Core (Required)
	EnvBotAuthToken     = "BOT_AUTH_TOKEN"
	EnvBotChannelSecret = "BOT_CHANNEL_SECRET"
	EnvSupportChannelID = "SUPPORT_CHANNEL_ID"
	EnvBotSenderName    = "BOT_SENDER_NAME"

	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// Matching
	EnvMatchStrategy   = "MATCH_STRATEGY"
	EnvFAQCatalogPath  = "FAQ_CATALOG_PATH"
	EnvFAQSynonymsPath = "FAQ_SYNONYMS_PATH"

	// Rate Limits
	EnvRateLimitMaxMessages   = "RATE_LIMIT_MAX_MESSAGES"
	EnvRateLimitWindowMS      = "RATE_LIMIT_WINDOW_MS"
	EnvReplyCooldownMS        = "REPLY_COOLDOWN_MS"
	EnvRateLimitSweepInterval = "RATE_LIMIT_SWEEP_INTERVAL"
	EnvGlobalRateRPS          = "GLOBAL_RATE_RPS"

	// Shared Rate State
	EnvRateLimitRedisAddr     = "RATE_LIMIT_REDIS_ADDR"
	EnvRateLimitRedisPassword = "RATE_LIMIT_REDIS_PASSWORD"
	EnvRateLimitRedisDB       = "RATE_LIMIT_REDIS_DB"

	// R2 Data Files Feature
	EnvR2Enabled         = "R2_ENABLED"
	EnvR2AccountID       = "R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "R2_BUCKET_NAME"
	EnvR2CatalogKey      = "R2_CATALOG_KEY"
	EnvR2SynonymsKey     = "R2_SYNONYMS_KEY"

	// Sentry Feature
	EnvSentryDSN         = "SENTRY_DSN"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"
)
