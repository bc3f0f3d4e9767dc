package vector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	log "github.com/sirupsen/logrus"

	"recall/internal/models"
	"recall/internal/store"
)

// StoreImpl is the pgvector-backed similarity index. Every query carries an
// owner predicate so index reads are scoped before fusion ever sees a hit.
type StoreImpl struct {
	db *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (store.VectorIndex, error) {
	if dsn == "" {
		return nil, fmt.Errorf("vector store DSN cannot be empty")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vector store DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping vector store: %w", err)
	}
	log.Info("Connected to PostgreSQL vector store")
	return &StoreImpl{db: pool}, nil
}

func (vs *StoreImpl) Close() error {
	if vs.db != nil {
		vs.db.Close()
	}
	return nil
}

func (vs *StoreImpl) Ping(ctx context.Context) error {
	if vs.db == nil {
		return fmt.Errorf("vector store connection is not initialized")
	}
	return vs.db.Ping(ctx)
}

// Query returns the k nearest neighbors for the owner's corpus. RawScore is
// the cosine distance reported by pgvector, left un-normalized for the
// fusion stage. content_created_at is the content's own creation time,
// copied onto the embedding row at capture time; the index may live in a
// separate database from the contents table, so it cannot be joined here.
// Selecting it keeps the fusion tie-break key identical to the timestamp
// surfaced on results.
func (vs *StoreImpl) Query(ctx context.Context, queryVector pgvector.Vector, k int, ownerID string) ([]models.RawHit, error) {
	query := `
		SELECT content_id, (vector <=> $1) AS distance, content_created_at
		FROM embeddings
		WHERE owner_id = $2
		ORDER BY vector <=> $1
		LIMIT $3`

	rows, err := vs.db.Query(ctx, query, queryVector, ownerID, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search query: %w", err)
	}
	defer rows.Close()

	var hits []models.RawHit
	for rows.Next() {
		hit := models.RawHit{Source: models.SourceVector}
		if err := rows.Scan(&hit.ID, &hit.RawScore, &hit.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan similarity search row: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similarity search rows: %w", err)
	}
	return hits, nil
}
