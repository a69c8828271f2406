// Package config provides configuration loading for the knowledgebot
// process. Values come from a YAML file; secrets fall back to environment
// variables so the file can be committed without them.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Vector backend identifiers.
const (
	BackendFlat   = "flat"
	BackendQdrant = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Telegram TelegramConfig `yaml:"telegram"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Vector   VectorConfig   `yaml:"vector"`
	Session  SessionConfig  `yaml:"session"`
	Search   SearchConfig   `yaml:"search"`
}

// TelegramConfig holds bot API settings.
type TelegramConfig struct {
	Token string `yaml:"token"`
}

// OpenAIConfig holds embedding and completion settings.
type OpenAIConfig struct {
	APIKey              string  `yaml:"api_key"`
	EmbeddingModel      string  `yaml:"embedding_model"`
	EmbeddingDimensions int     `yaml:"embedding_dimensions"`
	ChatModel           string  `yaml:"chat_model"`
	Temperature         float32 `yaml:"temperature"`
	MaxTokens           int     `yaml:"max_tokens"`
}

// SupabaseConfig holds document store settings.
type SupabaseConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// VectorConfig selects and configures the vector index backend.
type VectorConfig struct {
	// Backend is "flat" (exact in-process) or "qdrant" (remote).
	Backend string       `yaml:"backend"`
	Qdrant  QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds remote backend settings.
type QdrantConfig struct {
	URL              string `yaml:"url"`
	APIKey           string `yaml:"api_key"`
	CollectionPrefix string `yaml:"collection_prefix"`
}

// SessionConfig holds conversation history settings.
type SessionConfig struct {
	// Store is "memory" or "redis".
	Store           string `yaml:"store"`
	RedisAddr       string `yaml:"redis_addr"`
	RedisPassword   string `yaml:"redis_password"`
	TTLHours        int    `yaml:"ttl_hours"`
	HistoryMessages int    `yaml:"history_messages"`
	HistoryTokens   int    `yaml:"history_tokens"`
}

// TTL returns the session expiry as a duration.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	// Limit is the number of nearest documents retrieved per query.
	Limit int `yaml:"limit"`
}

// Load reads and parses the config file at path, applies defaults and
// environment fallbacks, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields with defaults and pulls secrets from the
// environment when the file leaves them empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Supabase.APIKey == "" {
		cfg.Supabase.APIKey = os.Getenv("SUPABASE_API_KEY")
	}
	if cfg.Vector.Qdrant.APIKey == "" {
		cfg.Vector.Qdrant.APIKey = os.Getenv("QDRANT_API_KEY")
	}

	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.OpenAI.EmbeddingDimensions == 0 {
		cfg.OpenAI.EmbeddingDimensions = 1536
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if cfg.Vector.Backend == "" {
		cfg.Vector.Backend = BackendFlat
	}
	if cfg.Vector.Qdrant.CollectionPrefix == "" {
		cfg.Vector.Qdrant.CollectionPrefix = "kb_"
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "memory"
	}
	if cfg.Session.TTLHours == 0 {
		cfg.Session.TTLHours = 24
	}
	if cfg.Session.HistoryMessages == 0 {
		cfg.Session.HistoryMessages = 20
	}
	if cfg.Session.HistoryTokens == 0 {
		cfg.Session.HistoryTokens = 2000
	}
	if cfg.Search.Limit == 0 {
		cfg.Search.Limit = 5
	}
}

// Validate reports configuration that cannot produce a working process.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai api key is required")
	}
	if c.Supabase.URL == "" {
		return fmt.Errorf("supabase url is required")
	}
	if c.Supabase.APIKey == "" {
		return fmt.Errorf("supabase api key is required")
	}
	if c.OpenAI.EmbeddingDimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive")
	}
	switch c.Vector.Backend {
	case BackendFlat:
	case BackendQdrant:
		if c.Vector.Qdrant.URL == "" {
			return fmt.Errorf("qdrant url is required for the qdrant backend")
		}
	default:
		return fmt.Errorf("unknown vector backend %q", c.Vector.Backend)
	}
	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis session store")
		}
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}
	return nil
}
