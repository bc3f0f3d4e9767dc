package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	log "github.com/sirupsen/logrus"

	"recall/internal/store"
)

// NewFallbackEmbeddingService builds a provider chain. All providers must
// agree on the embedding dimension since their vectors land in one index.
func NewFallbackEmbeddingService(providers []EmbeddingProvider, strategy RetryStrategy) (*FallbackEmbeddingService, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one embedding provider is required")
	}
	if strategy == nil {
		strategy = &SimpleRetryStrategy{MaxAttempts: 3, BaseDelayMs: 100}
	}
	dim := providers[0].Dimension()
	for _, p := range providers[1:] {
		if p.Dimension() != dim {
			return nil, fmt.Errorf("all embedding providers must share one dimension (provider %s has %d, expected %d)",
				p.Name(), p.Dimension(), dim)
		}
	}
	return &FallbackEmbeddingService{providers: providers, retry: strategy}, nil
}

// GenerateEmbedding tries the active provider with bounded retries, rotating
// through the chain until one succeeds or every provider has been exhausted.
// Auth failures skip retries: repeating a bad credential never helps.
func (s *FallbackEmbeddingService) GenerateEmbedding(ctx context.Context, text string) (pgvector.Vector, error) {
	s.mu.RLock()
	n := len(s.providers)
	s.mu.RUnlock()
	if n == 0 {
		return pgvector.Vector{}, fmt.Errorf("no embedding providers configured")
	}

	var lastErr error
	for tried := 0; tried < n; tried++ {
		s.mu.RLock()
		provider := s.providers[s.active]
		s.mu.RUnlock()

		for attempt := 0; ; attempt++ {
			vec, err := provider.GenerateEmbedding(ctx, text)
			if err == nil {
				return vec, nil
			}
			if ctx.Err() != nil {
				return pgvector.Vector{}, fmt.Errorf("embedding cancelled: %w", ctx.Err())
			}

			lastErr = fmt.Errorf("provider %s: %w", provider.Name(), err)
			log.WithError(err).WithFields(log.Fields{
				"provider": provider.Name(),
				"attempt":  attempt + 1,
			}).Warn("embedding attempt failed")

			backoff := s.retry.NextBackoff(attempt)
			if backoff < 0 || errors.Is(err, store.ErrProviderAuth) {
				break
			}
			select {
			case <-time.After(time.Duration(backoff) * time.Millisecond):
			case <-ctx.Done():
				return pgvector.Vector{}, fmt.Errorf("embedding cancelled during backoff: %w", ctx.Err())
			}
		}

		s.mu.Lock()
		s.active = (s.active + 1) % n
		next := s.providers[s.active].Name()
		s.mu.Unlock()
		log.WithField("provider", next).Info("switching active embedding provider")
	}

	return pgvector.Vector{}, fmt.Errorf("all embedding providers failed: %w", lastErr)
}
