// Package config provides configuration management for the application.
package config

import (
	"github.com/spf13/viper"

	"medchat/internal/cache"
	"medchat/internal/extract"
	"medchat/internal/payload"
	"medchat/internal/storage"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig
	OpenAI     OpenAIConfig
	Storage    storage.Config
	Cache      cache.Config
	Chat       ChatConfig
	Attachment AttachmentConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	// MasterKey enables bearer-token auth when set; empty disables auth
	MasterKey string
	// BodyLimit is the echo body-limit middleware setting (e.g. "10M")
	BodyLimit string
	// MetricsEnabled exposes /metrics when true
	MetricsEnabled bool
}

// OpenAIConfig holds completion-API configuration
type OpenAIConfig struct {
	// APIKey authenticates against the completions API; empty means the
	// service runs without a completion backend and answers with the
	// fallback message
	APIKey  string
	BaseURL string
}

// ChatConfig holds conversation behavior configuration
type ChatConfig struct {
	TextModel       string
	VisionModel     string
	MaxTokens       int
	Temperature     float64
	SystemPrompt    string
	FallbackMessage string
}

// AttachmentConfig holds ingestion pipeline configuration
type AttachmentConfig struct {
	// MaxBytes is the per-attachment decoded size ceiling
	MaxBytes int64
}

// LogConfig holds logging configuration
type LogConfig struct {
	// Format is "json" or "pretty"
	Format string
	Level  string
}

// DefaultSystemPrompt frames the assistant as a careful medical helper.
// It is intentionally conservative: the assistant informs, it never
// diagnoses or prescribes.
const DefaultSystemPrompt = "You are a medical information assistant. " +
	"Answer questions about symptoms, medications, and test results in plain language. " +
	"You do not diagnose conditions or prescribe treatment. " +
	"Recommend consulting a clinician for anything urgent or uncertain."

// DefaultFallbackMessage is returned when no completion backend is configured.
const DefaultFallbackMessage = "The assistant is temporarily unavailable. " +
	"Your message and attachments have been saved; please try again later."

// Load reads configuration from file and environment
func Load() (*Config, error) {
	// Load .env file using Viper (optional, won't fail if not found)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if .env file doesn't exist

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("BODY_LIMIT", "10M")
	viper.SetDefault("METRICS_ENABLED", true)
	viper.SetDefault("STORAGE_TYPE", storage.TypeSQLite)
	viper.SetDefault("SQLITE_PATH", "data/medchat.db")
	viper.SetDefault("POSTGRESQL_MAX_CONNS", 10)
	viper.SetDefault("MONGODB_DATABASE", "medchat")
	viper.SetDefault("CACHE_TYPE", "local")
	viper.SetDefault("TEXT_MODEL", payload.DefaultTextModel)
	viper.SetDefault("VISION_MODEL", payload.DefaultVisionModel)
	viper.SetDefault("MAX_TOKENS", 1024)
	viper.SetDefault("TEMPERATURE", 0.2)
	viper.SetDefault("SYSTEM_PROMPT", DefaultSystemPrompt)
	viper.SetDefault("FALLBACK_MESSAGE", DefaultFallbackMessage)
	viper.SetDefault("ATTACHMENT_MAX_BYTES", extract.DefaultMaxBytes)
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("LOG_LEVEL", "info")

	// Enable automatic environment variable reading
	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:           viper.GetString("PORT"),
			MasterKey:      viper.GetString("MASTER_KEY"),
			BodyLimit:      viper.GetString("BODY_LIMIT"),
			MetricsEnabled: viper.GetBool("METRICS_ENABLED"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  viper.GetString("OPENAI_API_KEY"),
			BaseURL: viper.GetString("OPENAI_BASE_URL"),
		},
		Storage: storage.Config{
			Type: viper.GetString("STORAGE_TYPE"),
			SQLite: storage.SQLiteConfig{
				Path: viper.GetString("SQLITE_PATH"),
			},
			PostgreSQL: storage.PostgreSQLConfig{
				URL:      viper.GetString("POSTGRESQL_URL"),
				MaxConns: viper.GetInt("POSTGRESQL_MAX_CONNS"),
			},
			MongoDB: storage.MongoDBConfig{
				URL:      viper.GetString("MONGODB_URL"),
				Database: viper.GetString("MONGODB_DATABASE"),
			},
		},
		Cache: cache.Config{
			Type:     viper.GetString("CACHE_TYPE"),
			RedisURL: viper.GetString("REDIS_URL"),
			TTL:      viper.GetDuration("CACHE_TTL"),
		},
		Chat: ChatConfig{
			TextModel:       viper.GetString("TEXT_MODEL"),
			VisionModel:     viper.GetString("VISION_MODEL"),
			MaxTokens:       viper.GetInt("MAX_TOKENS"),
			Temperature:     viper.GetFloat64("TEMPERATURE"),
			SystemPrompt:    viper.GetString("SYSTEM_PROMPT"),
			FallbackMessage: viper.GetString("FALLBACK_MESSAGE"),
		},
		Attachment: AttachmentConfig{
			MaxBytes: viper.GetInt64("ATTACHMENT_MAX_BYTES"),
		},
		Log: LogConfig{
			Format: viper.GetString("LOG_FORMAT"),
			Level:  viper.GetString("LOG_LEVEL"),
		},
	}

	return cfg, nil
}
