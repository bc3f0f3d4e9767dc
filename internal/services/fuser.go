package services

import (
	"sort"

	"recall/internal/models"
)

// ResultFuser normalizes and merges raw hits from the vector and lexical
// backends into a single ranked, deduplicated candidate list. It never
// applies limit or filters; callers hand it an over-fetched pool.
type ResultFuser struct{}

func NewResultFuser() *ResultFuser { return &ResultFuser{} }

// Fuse accepts either hit set as nil (backend skipped or failed). The
// returned list is sorted by score descending, ties broken by more recent
// createdAt, then by id for determinism.
func (f *ResultFuser) Fuse(vectorHits, lexicalHits []models.RawHit) []models.ScoredResult {
	merged := make(map[int64]models.ScoredResult, len(vectorHits)+len(lexicalHits))

	for _, hit := range vectorHits {
		merged[hit.ID] = models.ScoredResult{
			ID:        hit.ID,
			Score:     normalizeVectorDistance(hit.RawScore),
			Source:    models.SourceVector,
			CreatedAt: hit.CreatedAt,
		}
	}

	for id, score := range normalizeLexicalRanks(lexicalHits) {
		hit := score.hit
		if prev, ok := merged[id]; ok {
			// A doc that is either a strong semantic match or a strong
			// literal keyword match deserves to rank highly; take the max
			// rather than averaging the two scales.
			best := prev.Score
			if score.norm > best {
				best = score.norm
			}
			prev.Score = best
			prev.Source = models.SourceCombined
			merged[id] = prev
			continue
		}
		merged[id] = models.ScoredResult{
			ID:        id,
			Score:     score.norm,
			Source:    models.SourceLexical,
			CreatedAt: hit.CreatedAt,
		}
	}

	results := make([]models.ScoredResult, 0, len(merged))
	for _, r := range merged {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})
	return results
}

// normalizeVectorDistance maps a cosine distance d onto similarity 1-d,
// clipped to [0,1]. The embedding space is normalized, so d stays within
// [0,2] and clipping only guards degenerate inputs.
func normalizeVectorDistance(distance float64) float64 {
	s := 1.0 - distance
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

type lexicalScore struct {
	hit  models.RawHit
	norm float64
}

// normalizeLexicalRanks min-max scales the batch's engine ranks to [0,1] so
// the best hit maps to 1.0 and the worst to 0.0. A batch with one distinct
// rank value maps every member to 1.0 to avoid dividing by zero. Duplicate
// ids keep their best rank.
func normalizeLexicalRanks(hits []models.RawHit) map[int64]lexicalScore {
	scores := make(map[int64]lexicalScore, len(hits))
	if len(hits) == 0 {
		return scores
	}

	best := make(map[int64]models.RawHit, len(hits))
	min, max := hits[0].RawScore, hits[0].RawScore
	for _, hit := range hits {
		if hit.RawScore < min {
			min = hit.RawScore
		}
		if hit.RawScore > max {
			max = hit.RawScore
		}
		if prev, ok := best[hit.ID]; !ok || hit.RawScore > prev.RawScore {
			best[hit.ID] = hit
		}
	}

	span := max - min
	for id, hit := range best {
		norm := 1.0
		if span > 0 {
			norm = (hit.RawScore - min) / span
		}
		scores[id] = lexicalScore{hit: hit, norm: norm}
	}
	return scores
}
