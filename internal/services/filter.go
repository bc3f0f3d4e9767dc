package services

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"recall/internal/models"
	"recall/internal/store"
)

// FetchMoreFunc re-queries the backends with an expanded candidate pool,
// excluding ids that have already been examined. It returns a fused,
// ranked batch of unseen candidates; an empty batch means the corpus is
// exhausted.
type FetchMoreFunc func(ctx context.Context, exclude map[int64]struct{}) ([]models.ScoredResult, error)

// FilterEngine applies structural filters to an already-ranked candidate
// list without disturbing relative order. When filtering leaves fewer than
// limit results, it widens the candidate pool through fetchMore a bounded
// number of times instead of silently under-filling.
type FilterEngine struct {
	metadata  store.MetadataStore
	maxRounds int
}

func NewFilterEngine(metadata store.MetadataStore, maxRounds int) *FilterEngine {
	if maxRounds < 0 {
		maxRounds = 0
	}
	return &FilterEngine{metadata: metadata, maxRounds: maxRounds}
}

// Apply filters candidates down to at most limit results, widening through
// fetchMore when needed. It returns the kept results in rank order along
// with the metadata fetched for them, so callers hydrate without a second
// round trip. ownerID is re-checked here as defense in depth even though
// every backend query is already owner-scoped.
func (e *FilterEngine) Apply(
	ctx context.Context,
	candidates []models.ScoredResult,
	filters models.Filters,
	limit int,
	ownerID string,
	fetchMore FetchMoreFunc,
) ([]models.ScoredResult, map[int64]*models.ContentMeta, error) {
	kept := make([]models.ScoredResult, 0, limit)
	seen := make(map[int64]struct{})
	metaByID := make(map[int64]*models.ContentMeta)

	batch := candidates
	for round := 0; ; round++ {
		if err := e.filterBatch(ctx, batch, filters, ownerID, seen, metaByID, &kept, limit); err != nil {
			return nil, nil, err
		}
		if len(kept) >= limit {
			break
		}
		if round >= e.maxRounds || fetchMore == nil {
			break
		}

		more, err := fetchMore(ctx, seen)
		if err != nil {
			// Widening is best-effort; return what was found so far.
			log.WithError(err).Warn("widening fetch failed, returning partial results")
			break
		}
		if len(more) == 0 {
			// Pool exhausted, nothing left to widen into.
			break
		}
		log.WithFields(log.Fields{
			"round":     round + 1,
			"have":      len(kept),
			"want":      limit,
			"newBatch":  len(more),
			"maxRounds": e.maxRounds,
		}).Debug("widening candidate pool after under-filled filter pass")
		batch = more
	}

	// Widened batches are normalized against their own round, so a later
	// round can out-score an earlier keeper. Re-rank the union before
	// truncating to keep the response ordered by score.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		if !kept[i].CreatedAt.Equal(kept[j].CreatedAt) {
			return kept[i].CreatedAt.After(kept[j].CreatedAt)
		}
		return kept[i].ID < kept[j].ID
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept, metaByID, nil
}

func (e *FilterEngine) filterBatch(
	ctx context.Context,
	batch []models.ScoredResult,
	filters models.Filters,
	ownerID string,
	seen map[int64]struct{},
	metaByID map[int64]*models.ContentMeta,
	kept *[]models.ScoredResult,
	limit int,
) error {
	unseen := make([]int64, 0, len(batch))
	for _, c := range batch {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		unseen = append(unseen, c.ID)
	}
	if len(unseen) == 0 {
		return nil
	}

	metas, err := e.metadata.GetByIDs(ctx, unseen)
	if err != nil {
		return fmt.Errorf("fetch candidate metadata: %w", err)
	}
	for _, m := range metas {
		metaByID[m.ID] = m
	}

	for _, c := range batch {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		if len(*kept) >= limit {
			continue
		}
		meta, ok := metaByID[c.ID]
		if !ok {
			// Indexed but gone from the metadata store; skip rather than
			// surface a half-hydrated result.
			continue
		}
		if matchesFilters(meta, filters, ownerID) {
			*kept = append(*kept, c)
		}
	}
	return nil
}

func matchesFilters(meta *models.ContentMeta, filters models.Filters, ownerID string) bool {
	if meta.OwnerID != ownerID {
		return false
	}
	if len(filters.ContentTypes) > 0 {
		found := false
		for _, ct := range filters.ContentTypes {
			if meta.ContentType == ct {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !meta.HasAllTags(filters.Tags) {
		return false
	}
	if filters.DateFrom != nil && meta.CreatedAt.Before(*filters.DateFrom) {
		return false
	}
	if filters.DateTo != nil && meta.CreatedAt.After(*filters.DateTo) {
		return false
	}
	return true
}
