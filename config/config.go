package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the news RAG service. API
// credentials are never stored here; each provider section names the
// environment variable to read instead.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Connector ConnectorConfig `yaml:"connector"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
}

// ServerConfig holds the HTTP API configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ConnectorConfig holds the news-feed polling configuration.
type ConnectorConfig struct {
	APIKeyEnv       string   `yaml:"api_key_env"`
	Categories      []string `yaml:"categories"`
	IntervalSeconds int      `yaml:"interval_seconds"`
	PageSize        int      `yaml:"page_size"`
	RateLimit       float64  `yaml:"rate_limit"` // requests/sec against the provider
	Excludes        []string `yaml:"excludes"`   // URL globs, e.g. "**/sponsored/**"
	Buffer          int      `yaml:"buffer"`     // article channel capacity
}

// IngestConfig holds chunking and retention configuration.
type IngestConfig struct {
	ChunkTokens    int `yaml:"chunk_tokens"`
	RetentionHours int `yaml:"retention_hours"` // 0 keeps entries forever
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK               int  `yaml:"top_k"`
	PromptBudgetTokens int  `yaml:"prompt_budget_tokens"`
	CacheEnabled       bool `yaml:"cache_enabled"`
	CacheSize          int  `yaml:"cache_size"`
	CacheTTLSeconds    int  `yaml:"cache_ttl_seconds"`
}

// EmbeddingConfig holds embedding model configuration.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
}

// LLMConfig holds chat model configuration.
type LLMConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8000",
		},
		Connector: ConnectorConfig{
			APIKeyEnv:       "NEWS_API_KEY",
			Categories:      []string{"technology", "business"},
			IntervalSeconds: 60,
			PageSize:        20,
			RateLimit:       0.5,
			Buffer:          64,
		},
		Ingest: IngestConfig{
			ChunkTokens:    400,
			RetentionHours: 24,
		},
		Retrieve: RetrieveConfig{
			TopK:               5,
			PromptBudgetTokens: 3000,
			CacheEnabled:       false,
			CacheSize:          100,
			CacheTTLSeconds:    60,
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-004",
			APIKeyEnv: "GEMINI_API_KEY",
			Dimension: 768,
		},
		LLM: LLMConfig{
			Model:     "gemini-1.5-flash",
			APIKeyEnv: "GEMINI_API_KEY",
		},
	}
}

// Load loads configuration from a YAML file, merging over defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PollInterval returns the connector poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Connector.IntervalSeconds) * time.Second
}

// Retention returns the index retention horizon; zero disables pruning.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Ingest.RetentionHours) * time.Hour
}

// CacheTTL returns the retrieval cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Retrieve.CacheTTLSeconds) * time.Second
}

// RequireKey reads a credential from the environment. An unset value or
// a template placeholder (any value containing "your") is a fatal
// configuration error, raised before any loop starts.
func RequireKey(env string) (string, error) {
	key := os.Getenv(env)
	if key == "" || strings.Contains(strings.ToLower(key), "your") {
		return "", fmt.Errorf("%s is not configured; set it in the environment or .env file", env)
	}
	return key, nil
}
