package primary

import (
	"context"
	"fmt"

	"recall/internal/models"
	"recall/internal/store"
)

// GetByIDs fetches filter and display metadata for the given content ids.
// Ids that no longer exist are simply absent from the result.
func (s *StoreImpl) GetByIDs(ctx context.Context, ids []int64) ([]*models.ContentMeta, error) {
	if len(ids) == 0 {
		return []*models.ContentMeta{}, nil
	}

	query := `
		SELECT id, title, content_type, tags, created_at, owner_id, body
		FROM contents
		WHERE id = ANY($1)`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query content metadata: %w", err)
	}
	defer rows.Close()

	var metas []*models.ContentMeta
	for rows.Next() {
		m := &models.ContentMeta{}
		if err := rows.Scan(&m.ID, &m.Title, &m.ContentType, &m.Tags, &m.CreatedAt, &m.OwnerID, &m.ExcerptSource); err != nil {
			return nil, fmt.Errorf("scan content metadata row: %w", err)
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content metadata rows: %w", err)
	}
	return metas, nil
}

var _ store.MetadataStore = (*StoreImpl)(nil)
