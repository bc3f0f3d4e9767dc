package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recall/internal/models"
	"recall/internal/services"
)

const filterOwner = "owner-1"

var filterBase = time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

func scored(ids ...int64) []models.ScoredResult {
	out := make([]models.ScoredResult, 0, len(ids))
	score := 1.0
	for _, id := range ids {
		out = append(out, models.ScoredResult{ID: id, Score: score, Source: models.SourceVector, CreatedAt: filterBase})
		score -= 0.01
	}
	return out
}

func TestFilterApplyPreservesOrder(t *testing.T) {
	metas := &fakeMetadataStore{metas: map[int64]*models.ContentMeta{}}
	for _, id := range []int64{5, 3, 9, 1} {
		metas.metas[id] = meta(id, filterOwner, models.ContentTypeNote, nil, filterBase)
	}
	engine := services.NewFilterEngine(metas, 3)

	kept, metaByID, err := engine.Apply(context.Background(), scored(5, 3, 9, 1), models.Filters{}, 10, filterOwner, nil)
	require.NoError(t, err)
	require.Len(t, kept, 4)
	assert.Equal(t, []int64{5, 3, 9, 1}, []int64{kept[0].ID, kept[1].ID, kept[2].ID, kept[3].ID})
	assert.Len(t, metaByID, 4)
}

func TestFilterApplyStructuralDimensions(t *testing.T) {
	old := filterBase.Add(-30 * 24 * time.Hour)
	metas := &fakeMetadataStore{metas: map[int64]*models.ContentMeta{
		1: meta(1, filterOwner, models.ContentTypeNote, []string{"go", "search"}, filterBase),
		2: meta(2, filterOwner, models.ContentTypeBookmark, []string{"go", "search"}, filterBase),
		3: meta(3, filterOwner, models.ContentTypeNote, []string{"go"}, filterBase),
		4: meta(4, "someone-else", models.ContentTypeNote, []string{"go", "search"}, filterBase),
		5: meta(5, filterOwner, models.ContentTypeNote, []string{"go", "search"}, old),
	}}
	engine := services.NewFilterEngine(metas, 0)

	from := filterBase.Add(-time.Hour)
	filters := models.Filters{
		ContentTypes: []models.ContentType{models.ContentTypeNote},
		Tags:         []string{"go", "search"},
		DateFrom:     &from,
	}
	kept, _, err := engine.Apply(context.Background(), scored(1, 2, 3, 4, 5), filters, 10, filterOwner, nil)
	require.NoError(t, err)
	// 2 fails the type filter, 3 misses a tag, 4 belongs to another owner,
	// 5 predates the range.
	require.Len(t, kept, 1)
	assert.Equal(t, int64(1), kept[0].ID)
}

func TestFilterApplyDateBoundsAreInclusive(t *testing.T) {
	metas := &fakeMetadataStore{metas: map[int64]*models.ContentMeta{
		1: meta(1, filterOwner, models.ContentTypeNote, nil, filterBase),
	}}
	engine := services.NewFilterEngine(metas, 0)

	from, to := filterBase, filterBase
	filters := models.Filters{DateFrom: &from, DateTo: &to}
	kept, _, err := engine.Apply(context.Background(), scored(1), filters, 10, filterOwner, nil)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestFilterApplySkipsMissingMetadata(t *testing.T) {
	metas := &fakeMetadataStore{metas: map[int64]*models.ContentMeta{
		2: meta(2, filterOwner, models.ContentTypeNote, nil, filterBase),
	}}
	engine := services.NewFilterEngine(metas, 0)

	kept, _, err := engine.Apply(context.Background(), scored(1, 2), models.Filters{}, 10, filterOwner, nil)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, int64(2), kept[0].ID)
}

func TestFilterApplyWidensUntilFilled(t *testing.T) {
	metas := &fakeMetadataStore{metas: map[int64]*models.ContentMeta{}}
	// Candidates 1-10 exist; only the even ones carry the wanted tag.
	for id := int64(1); id <= 20; id++ {
		tags := []string{"other"}
		if id%2 == 0 {
			tags = []string{"wanted"}
		}
		metas.metas[id] = meta(id, filterOwner, models.ContentTypeNote, tags, filterBase)
	}
	engine := services.NewFilterEngine(metas, 3)

	fetchCalls := 0
	fetchMore := func(ctx context.Context, exclude map[int64]struct{}) ([]models.ScoredResult, error) {
		fetchCalls++
		var fresh []models.ScoredResult
		for _, c := range scored(11, 12, 13, 14, 15, 16, 17, 18, 19, 20) {
			if _, ok := exclude[c.ID]; !ok {
				fresh = append(fresh, c)
			}
		}
		return fresh, nil
	}

	filters := models.Filters{Tags: []string{"wanted"}}
	kept, _, err := engine.Apply(context.Background(), scored(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), filters, 8, filterOwner, fetchMore)
	require.NoError(t, err)
	// 5 matches from the first batch, widened once for 3 more.
	require.Len(t, kept, 8)
	assert.Equal(t, 1, fetchCalls)
	for _, r := range kept {
		assert.Zero(t, r.ID%2)
	}
}

func TestFilterApplyWideningIsBounded(t *testing.T) {
	metas := &fakeMetadataStore{metas: map[int64]*models.ContentMeta{}}
	engine := services.NewFilterEngine(metas, 2)

	next := int64(100)
	fetchCalls := 0
	fetchMore := func(ctx context.Context, exclude map[int64]struct{}) ([]models.ScoredResult, error) {
		fetchCalls++
		next++
		// Fresh candidates every round, none of which have metadata, so the
		// filter pass never fills.
		return scored(next), nil
	}

	kept, _, err := engine.Apply(context.Background(), scored(1, 2), models.Filters{}, 5, filterOwner, fetchMore)
	require.NoError(t, err)
	assert.Empty(t, kept)
	assert.Equal(t, 2, fetchCalls)
}

func TestFilterApplyStopsOnExhaustedPool(t *testing.T) {
	metas := &fakeMetadataStore{metas: map[int64]*models.ContentMeta{
		1: meta(1, filterOwner, models.ContentTypeNote, nil, filterBase),
	}}
	engine := services.NewFilterEngine(metas, 5)

	fetchCalls := 0
	fetchMore := func(ctx context.Context, exclude map[int64]struct{}) ([]models.ScoredResult, error) {
		fetchCalls++
		return nil, nil
	}

	kept, _, err := engine.Apply(context.Background(), scored(1), models.Filters{}, 5, filterOwner, fetchMore)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
	assert.Equal(t, 1, fetchCalls)
}

func TestFilterApplyReturnsPartialOnFetchMoreError(t *testing.T) {
	metas := &fakeMetadataStore{metas: map[int64]*models.ContentMeta{
		1: meta(1, filterOwner, models.ContentTypeNote, nil, filterBase),
	}}
	engine := services.NewFilterEngine(metas, 3)

	fetchMore := func(ctx context.Context, exclude map[int64]struct{}) ([]models.ScoredResult, error) {
		return nil, errors.New("backend gone")
	}

	kept, _, err := engine.Apply(context.Background(), scored(1), models.Filters{}, 5, filterOwner, fetchMore)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestFilterApplyRanksAcrossWideningRounds(t *testing.T) {
	metas := &fakeMetadataStore{metas: map[int64]*models.ContentMeta{
		2: meta(2, filterOwner, models.ContentTypeNote, []string{"wanted"}, filterBase),
		3: meta(3, filterOwner, models.ContentTypeNote, []string{"wanted"}, filterBase),
	}}
	engine := services.NewFilterEngine(metas, 3)

	// The first round's only survivor bottomed out its batch's min-max
	// scale; the widened round contributes a better-scoring candidate.
	first := []models.ScoredResult{
		{ID: 1, Score: 1.0, Source: models.SourceLexical, CreatedAt: filterBase},
		{ID: 2, Score: 0.0, Source: models.SourceLexical, CreatedAt: filterBase},
	}
	fetchMore := func(ctx context.Context, exclude map[int64]struct{}) ([]models.ScoredResult, error) {
		return []models.ScoredResult{
			{ID: 3, Score: 0.019, Source: models.SourceLexical, CreatedAt: filterBase},
		}, nil
	}

	kept, _, err := engine.Apply(context.Background(), first, models.Filters{Tags: []string{"wanted"}}, 2, filterOwner, fetchMore)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, int64(3), kept[0].ID)
	assert.Equal(t, int64(2), kept[1].ID)
	assert.GreaterOrEqual(t, kept[0].Score, kept[1].Score)
}

func TestFilterApplyTruncatesToLimit(t *testing.T) {
	metas := &fakeMetadataStore{metas: map[int64]*models.ContentMeta{}}
	for id := int64(1); id <= 10; id++ {
		metas.metas[id] = meta(id, filterOwner, models.ContentTypeNote, nil, filterBase)
	}
	engine := services.NewFilterEngine(metas, 0)

	kept, _, err := engine.Apply(context.Background(), scored(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), models.Filters{}, 3, filterOwner, nil)
	require.NoError(t, err)
	require.Len(t, kept, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{kept[0].ID, kept[1].ID, kept[2].ID})
}

func TestFilterApplyMetadataFetchError(t *testing.T) {
	metas := &fakeMetadataStore{err: errors.New("db down")}
	engine := services.NewFilterEngine(metas, 0)

	_, _, err := engine.Apply(context.Background(), scored(1), models.Filters{}, 5, filterOwner, nil)
	require.Error(t, err)
}
