package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	if c.Database.Primary.DSN == "" {
		return errors.New("database.primary.dsn is required")
	}
	if c.Database.Vector.DSN == "" {
		return errors.New("database.vector.dsn is required")
	}

	if c.Embedding.GeminiModelName != "" && c.Embedding.GoogleApiKey == "" {
		return errors.New("embedding.google_api_key is required when embedding.gemini_model_name is set")
	}
	if c.Embedding.Dimension <= 0 {
		return errors.New("embedding.dimension must be a positive integer")
	}

	s := c.Search
	switch s.Mode {
	case "combined", "fallback":
	default:
		return fmt.Errorf("search.mode must be \"combined\" or \"fallback\", got %q", s.Mode)
	}
	switch s.LimitPolicy {
	case "reject", "clamp":
	default:
		return fmt.Errorf("search.limit_policy must be \"reject\" or \"clamp\", got %q", s.LimitPolicy)
	}
	if s.DefaultLimit < 1 || s.DefaultLimit > s.MaxLimit {
		return fmt.Errorf("search.default_limit must be in [1, %d]", s.MaxLimit)
	}
	if s.MaxLimit < 1 {
		return errors.New("search.max_limit must be positive")
	}
	if s.CandidateMultiplier < 1 {
		return errors.New("search.candidate_multiplier must be positive")
	}
	if s.MaxCandidatePool < s.MaxLimit {
		return fmt.Errorf("search.max_candidate_pool must be at least search.max_limit (%d)", s.MaxLimit)
	}
	if s.WideningRounds < 0 {
		return errors.New("search.widening_rounds must be non-negative")
	}
	if s.MaxQueryLength < 1 {
		return errors.New("search.max_query_length must be positive")
	}
	if s.EmbeddingTimeoutMs <= 0 || s.VectorTimeoutMs <= 0 || s.LexicalTimeoutMs <= 0 {
		return errors.New("search timeouts must be positive")
	}
	if s.QueryLogBuffer < 1 {
		return errors.New("search.query_log_buffer must be positive")
	}
	return nil
}
