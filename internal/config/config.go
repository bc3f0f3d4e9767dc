package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// SearchConfig tunes the hybrid search orchestration engine.
type SearchConfig struct {
	// Mode is "combined" (always run both backends) or "fallback" (run the
	// lexical backend only when the vector path is unavailable or thin).
	Mode string `mapstructure:"mode"`

	// DefaultLimit is applied when a request leaves limit unset.
	DefaultLimit int `mapstructure:"default_limit"`

	// LimitPolicy is "reject" (fail out-of-range limits with a validation
	// error) or "clamp" (coerce into [1, MaxLimit]).
	LimitPolicy string `mapstructure:"limit_policy"`

	// MaxLimit is the hard cap on results per response.
	MaxLimit int `mapstructure:"max_limit"`

	// CandidateMultiplier over-fetches the backend candidate pool relative
	// to limit so post-hoc filtering does not immediately under-fill.
	CandidateMultiplier int `mapstructure:"candidate_multiplier"`

	// MaxCandidatePool bounds the pool size even across widening rounds.
	MaxCandidatePool int `mapstructure:"max_candidate_pool"`

	// WideningRounds bounds the filter engine's re-fetch retries.
	WideningRounds int `mapstructure:"widening_rounds"`

	MaxQueryLength int `mapstructure:"max_query_length"`

	// Per-backend call timeouts in milliseconds.
	EmbeddingTimeoutMs int `mapstructure:"embedding_timeout_ms"`
	VectorTimeoutMs    int `mapstructure:"vector_timeout_ms"`
	LexicalTimeoutMs   int `mapstructure:"lexical_timeout_ms"`

	// QueryLogBuffer is the bounded capacity of the async query log queue.
	QueryLogBuffer int `mapstructure:"query_log_buffer"`
}

type Config struct {
	Database struct {
		Primary struct {
			DSN string `mapstructure:"dsn"`
		} `mapstructure:"primary"`
		Vector struct {
			DSN string `mapstructure:"dsn"`
		} `mapstructure:"vector"`
	} `mapstructure:"database"`

	Embedding struct {
		Model           string `mapstructure:"model"`
		OpenaiApiKey    string `mapstructure:"openai_api_key"`
		GoogleApiKey    string `mapstructure:"google_api_key"`
		GeminiModelName string `mapstructure:"gemini_model_name"`
		Dimension       int    `mapstructure:"dimension"`
	} `mapstructure:"embedding"`

	Search SearchConfig `mapstructure:"search"`

	Server struct {
		Address string `mapstructure:"address"`
		Port    string `mapstructure:"port"`
	} `mapstructure:"server"`
}

func setDefaults() {
	viper.SetDefault("search.mode", "combined")
	viper.SetDefault("search.default_limit", 10)
	viper.SetDefault("search.limit_policy", "reject")
	viper.SetDefault("search.max_limit", 50)
	viper.SetDefault("search.candidate_multiplier", 3)
	viper.SetDefault("search.max_candidate_pool", 200)
	viper.SetDefault("search.widening_rounds", 3)
	viper.SetDefault("search.max_query_length", 1000)
	viper.SetDefault("search.embedding_timeout_ms", 5000)
	viper.SetDefault("search.vector_timeout_ms", 3000)
	viper.SetDefault("search.lexical_timeout_ms", 3000)
	viper.SetDefault("search.query_log_buffer", 256)
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimension", 1536)
	viper.SetDefault("server.address", "127.0.0.1")
	viper.SetDefault("server.port", "8080")
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.BindEnv("embedding.openai_api_key", "OPENAI_API_KEY")
	viper.BindEnv("embedding.google_api_key", "GEMINI_API_KEY")
	viper.BindEnv("database.primary.dsn", "RECALL_PRIMARY_DSN")
	viper.BindEnv("database.vector.dsn", "RECALL_VECTOR_DSN")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; rely on defaults and env vars.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
