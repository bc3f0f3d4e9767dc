package services

import (
	"context"
	"sync"

	"github.com/pgvector/pgvector-go"

	"recall/internal/store"
)

// EmbeddingProvider is one concrete embedding backend. Providers classify
// their failures onto the store.ErrProvider* classes so callers can treat
// timeouts, rate limits, auth failures, and outages uniformly.
type EmbeddingProvider interface {
	Name() string
	ModelName() string
	Status() store.ProviderStatus
	GenerateEmbedding(ctx context.Context, text string) (pgvector.Vector, error)
	Dimension() int
}

type RetryStrategy interface {
	// NextBackoff returns the wait in milliseconds before retrying the given
	// zero-based attempt, or a negative value to stop retrying.
	NextBackoff(attempt int) int64
}

// SimpleRetryStrategy provides bounded exponential backoff.
type SimpleRetryStrategy struct {
	MaxAttempts int
	BaseDelayMs int64
}

func (s *SimpleRetryStrategy) NextBackoff(attempt int) int64 {
	if s.MaxAttempts <= 0 || attempt >= s.MaxAttempts {
		return -1
	}
	backoff := s.BaseDelayMs * (1 << attempt)
	const maxDelay = int64(30000)
	if backoff > maxDelay {
		backoff = maxDelay
	}
	return backoff
}

// FallbackEmbeddingService tries a chain of providers, rotating to the next
// one once the retry strategy gives up on the current.
type FallbackEmbeddingService struct {
	providers []EmbeddingProvider
	active    int
	retry     RetryStrategy
	mu        sync.RWMutex
}

func (s *FallbackEmbeddingService) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.providers) == 0 {
		return 0
	}
	return s.providers[s.active].Dimension()
}

func (s *FallbackEmbeddingService) ModelName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.providers) == 0 {
		return ""
	}
	return s.providers[s.active].ModelName()
}

func (s *FallbackEmbeddingService) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.providers) == 0 {
		return ""
	}
	return s.providers[s.active].Name()
}

func (s *FallbackEmbeddingService) Status() store.ProviderStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.providers) == 0 {
		return store.ProviderStatusDisabled
	}
	return s.providers[s.active].Status()
}

var _ store.EmbeddingService = (*FallbackEmbeddingService)(nil)
