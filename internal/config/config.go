// Package config provides environment configuration for the bot.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Telegram settings
	TelegramToken         string
	TelegramUpdateTimeout int

	// LLM settings
	AnthropicAPIKey string
	OpenAIAPIKey    string
	DefaultLLM      string
	Model           string
	MaxTokens       int

	// Conversation memory
	HistoryLimit int

	// Daily quota
	DailyLimit          int
	QuotaAmpleThreshold int
	QuotaLowThreshold   int

	// Persistence
	StateFile        string
	SnapshotInterval time.Duration

	// NATS event publishing (disabled when URL is empty)
	NATSURL   string
	NATSToken string

	// Admin API
	JWTSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),

		// Telegram
		TelegramToken:         getEnv("TELEGRAM_TOKEN", ""),
		TelegramUpdateTimeout: getIntEnv("TELEGRAM_UPDATE_TIMEOUT", 30),

		// LLM
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		DefaultLLM:      getEnv("DEFAULT_LLM", "anthropic"),
		Model:           getEnv("MODEL", ""),
		MaxTokens:       getIntEnv("MAX_TOKENS", 1024),

		// Memory: bounded per-chat history, oldest entries evicted first.
		HistoryLimit: getIntEnv("HISTORY_LIMIT", 40),

		// Quota: shared daily budget across all chats, reset at UTC midnight.
		DailyLimit:          getIntEnv("DAILY_LIMIT", 1000),
		QuotaAmpleThreshold: getIntEnv("QUOTA_AMPLE_THRESHOLD", 200),
		QuotaLowThreshold:   getIntEnv("QUOTA_LOW_THRESHOLD", 50),

		// Persistence
		StateFile:        getEnv("STATE_FILE", "data/state.json"),
		SnapshotInterval: getDurationEnv("SNAPSHOT_INTERVAL", 30*time.Second),

		// NATS
		NATSURL:   getEnv("NATS_URL", ""),
		NATSToken: getEnv("NATS_TOKEN", ""),

		// Admin API
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
