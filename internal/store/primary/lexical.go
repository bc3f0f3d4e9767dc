package primary

import (
	"context"
	"fmt"

	"recall/internal/models"
	"recall/internal/store"
)

// Query runs an owner-scoped full-text search. ts_rank_cd already returns
// higher-for-more-relevant scores, matching the LexicalIndex contract, so
// no convention flip is needed here.
func (s *StoreImpl) Query(ctx context.Context, query string, k int, ownerID string) ([]models.RawHit, error) {
	sql := `
		SELECT id, ts_rank_cd(fts, q) AS rank, created_at
		FROM contents, websearch_to_tsquery('english', $1) q
		WHERE owner_id = $2 AND fts @@ q
		ORDER BY rank DESC, created_at DESC
		LIMIT $3`

	rows, err := s.db.Query(ctx, sql, query, ownerID, k)
	if err != nil {
		return nil, fmt.Errorf("lexical search query: %w", err)
	}
	defer rows.Close()

	var hits []models.RawHit
	for rows.Next() {
		hit := models.RawHit{Source: models.SourceLexical}
		if err := rows.Scan(&hit.ID, &hit.RawScore, &hit.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lexical search row: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lexical search rows: %w", err)
	}
	return hits, nil
}

var _ store.LexicalIndex = (*StoreImpl)(nil)
