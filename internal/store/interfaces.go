package store

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"recall/internal/models"
)

// --- Provider Status ---

type ProviderStatus int

const (
	ProviderStatusUnknown  ProviderStatus = iota
	ProviderStatusActive                  // Provider is operational
	ProviderStatusInactive                // Provider is temporarily unavailable (e.g., network, rate limit)
	ProviderStatusDisabled                // Provider is not configured or explicitly disabled
)

// --- Embedding Service ---

type EmbeddingService interface {
	GenerateEmbedding(ctx context.Context, text string) (pgvector.Vector, error)
	Dimension() int
	ModelName() string
	Name() string
	Status() ProviderStatus
}

// --- Vector Index ---

// VectorIndex answers approximate nearest-neighbor queries, scoped by owner.
// RawScore on the returned hits is a cosine distance (smaller is closer).
type VectorIndex interface {
	Query(ctx context.Context, queryVector pgvector.Vector, k int, ownerID string) ([]models.RawHit, error)

	Ping(ctx context.Context) error
	Close() error
}

// --- Lexical Index ---

// LexicalIndex answers keyword/full-text queries, scoped by owner. RawScore
// on the returned hits is an engine rank which the adapter has already
// oriented so that a greater value means a more relevant hit; the absolute
// scale is engine-specific and not comparable to vector scores.
type LexicalIndex interface {
	Query(ctx context.Context, query string, k int, ownerID string) ([]models.RawHit, error)
}

// --- Metadata Store ---

// MetadataStore fetches display and filter metadata by content id. Missing
// ids are silently absent from the result.
type MetadataStore interface {
	GetByIDs(ctx context.Context, ids []int64) ([]*models.ContentMeta, error)

	Ping(ctx context.Context) error
}

// --- Query Log Store ---

// QueryLogStore persists the append-only search diagnostics trail. Writes
// happen off the request path; failures must never surface to a caller.
type QueryLogStore interface {
	RecordQuery(ctx context.Context, entry *models.QueryLogEntry) error
	ListQueries(ctx context.Context, ownerID string, limit int) ([]*models.QueryLogEntry, error)
}
