// Package config loads service configuration from defaults, an optional config file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultFallbackPhrase is returned when no confident answer can be given.
const DefaultFallbackPhrase = "Lo siento, no he podido encontrar una respuesta. Por favor, reformula tu pregunta."

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the complete application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Answer     AnswerConfig     `mapstructure:"answer"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Completion CompletionConfig `mapstructure:"completion"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Webhooks   WebhooksConfig   `mapstructure:"webhooks"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AnswerConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	FallbackPhrase      string  `mapstructure:"fallback_phrase"`
	DomainSubject       string  `mapstructure:"domain_subject"`
}

type EmbeddingConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
}

type CompletionConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type RetrievalConfig struct {
	// Backend is "postgres" or "milvus"
	Backend  string         `mapstructure:"backend"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Milvus   MilvusConfig   `mapstructure:"milvus"`
}

type PostgresConfig struct {
	DSN            string `mapstructure:"dsn"`
	SearchFunction string `mapstructure:"search_function"`
	Table          string `mapstructure:"table"`
}

type MilvusConfig struct {
	Address    string `mapstructure:"address"`
	Collection string `mapstructure:"collection"`
}

type WebhooksConfig struct {
	// UnansweredURL receives unanswered questions; empty disables logging
	UnansweredURL string        `mapstructure:"unanswered_url"`
	LeadURL       string        `mapstructure:"lead_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

const (
	BackendPostgres = "postgres"
	BackendMilvus   = "milvus"
)

// envAliases binds keys to the variable names used by existing deployments.
// The first variable that is set wins.
var envAliases = map[string][]string{
	"server.address":              {"SERVER_ADDRESS"},
	"answer.similarity_threshold": {"ANSWER_SIMILARITY_THRESHOLD", "SIMILARITY_THRESHOLD"},
	"answer.fallback_phrase":      {"ANSWER_FALLBACK_PHRASE", "FALLBACK_PHRASE"},
	"answer.domain_subject":       {"ANSWER_DOMAIN_SUBJECT", "DOMAIN_SUBJECT"},
	"embedding.api_key":           {"EMBEDDING_API_KEY", "OPENAI_API_KEY"},
	"embedding.base_url":          {"EMBEDDING_BASE_URL"},
	"completion.api_key":          {"COMPLETION_API_KEY", "OPENROUTER_API_KEY"},
	"retrieval.postgres.dsn":      {"RETRIEVAL_POSTGRES_DSN", "DATABASE_URL"},
	"retrieval.milvus.address":    {"RETRIEVAL_MILVUS_ADDRESS", "MILVUS_ADDRESS"},
	"webhooks.unanswered_url":     {"WEBHOOKS_UNANSWERED_URL", "LOGGING_GOOGLE_APPS_SCRIPT_URL"},
	"webhooks.lead_url":           {"WEBHOOKS_LEAD_URL", "GOOGLE_APPS_SCRIPT_URL"},
	"port":                        {"PORT"},
}

// Load loads configuration from file and environment variables.
// CONCIERGE_CONFIG_FILE names an optional YAML/JSON/TOML config file.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile := os.Getenv("CONCIERGE_CONFIG_FILE"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// PORT is honoured the way hosting platforms set it, unless an address is explicit
	if port := v.GetString("port"); port != "" && os.Getenv("SERVER_ADDRESS") == "" {
		config.Server.Address = ":" + strings.TrimPrefix(port, ":")
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("answer.similarity_threshold", 0.85)
	v.SetDefault("answer.fallback_phrase", DefaultFallbackPhrase)
	v.SetDefault("answer.domain_subject", "the hotel, its rooms, services and facilities")

	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimension", 384)

	v.SetDefault("completion.api_key", "")
	v.SetDefault("completion.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("completion.model", "google/gemini-2.0-flash-001")
	v.SetDefault("completion.temperature", 0.1)
	v.SetDefault("completion.max_tokens", 512)

	v.SetDefault("retrieval.backend", BackendPostgres)
	v.SetDefault("retrieval.postgres.dsn", "")
	v.SetDefault("retrieval.postgres.search_function", "hybrid_search_faqs")
	v.SetDefault("retrieval.postgres.table", "faqs")
	v.SetDefault("retrieval.milvus.address", "localhost:19530")
	v.SetDefault("retrieval.milvus.collection", "faqs")

	v.SetDefault("webhooks.unanswered_url", "")
	v.SetDefault("webhooks.lead_url", "")
	v.SetDefault("webhooks.timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate checks the values the pipeline cannot start without
func (c *Config) Validate() error {
	var problems []string

	threshold := c.Answer.SimilarityThreshold
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		problems = append(problems, fmt.Sprintf("answer.similarity_threshold must be within [0,1], got %v", threshold))
	}
	if strings.TrimSpace(c.Answer.FallbackPhrase) == "" {
		problems = append(problems, "answer.fallback_phrase is required")
	}
	if strings.TrimSpace(c.Answer.DomainSubject) == "" {
		problems = append(problems, "answer.domain_subject is required")
	}
	if c.Embedding.Dimension <= 0 {
		problems = append(problems, fmt.Sprintf("embedding.dimension must be positive, got %d", c.Embedding.Dimension))
	}
	switch c.Retrieval.Backend {
	case BackendPostgres, BackendMilvus:
	default:
		problems = append(problems, fmt.Sprintf("retrieval.backend must be %q or %q, got %q", BackendPostgres, BackendMilvus, c.Retrieval.Backend))
	}
	if c.Webhooks.Timeout <= 0 {
		problems = append(problems, "webhooks.timeout must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
