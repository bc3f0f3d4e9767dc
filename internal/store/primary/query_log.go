package primary

import (
	"context"
	"fmt"

	"recall/internal/models"
	"recall/internal/store"
)

// RecordQuery appends one search diagnostics row. Callers invoke this off
// the request path; a failure here only ever reaches a log line.
func (s *StoreImpl) RecordQuery(ctx context.Context, entry *models.QueryLogEntry) error {
	sql := `
		INSERT INTO search_queries (id, query, owner_id, result_count, method, elapsed_ms, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.Exec(ctx, sql,
		entry.ID, entry.Query, entry.OwnerID, entry.ResultCount,
		string(entry.Method), entry.ElapsedMs, entry.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("record search query: %w", err)
	}
	return nil
}

func (s *StoreImpl) ListQueries(ctx context.Context, ownerID string, limit int) ([]*models.QueryLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	sql := `
		SELECT id, query, owner_id, result_count, method, elapsed_ms, executed_at
		FROM search_queries
		WHERE owner_id = $1
		ORDER BY executed_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, sql, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list search queries: %w", err)
	}
	defer rows.Close()

	var entries []*models.QueryLogEntry
	for rows.Next() {
		e := &models.QueryLogEntry{}
		var method string
		if err := rows.Scan(&e.ID, &e.Query, &e.OwnerID, &e.ResultCount, &method, &e.ElapsedMs, &e.ExecutedAt); err != nil {
			return nil, fmt.Errorf("scan search query row: %w", err)
		}
		e.Method = models.SearchMethod(method)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search query rows: %w", err)
	}
	return entries, nil
}

var _ store.QueryLogStore = (*StoreImpl)(nil)
