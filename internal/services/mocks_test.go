package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"

	"recall/internal/config"
	"recall/internal/models"
	"recall/internal/store"
)

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		Mode:                "combined",
		DefaultLimit:        10,
		LimitPolicy:         "reject",
		MaxLimit:            50,
		CandidateMultiplier: 3,
		MaxCandidatePool:    200,
		WideningRounds:      3,
		MaxQueryLength:      1000,
		EmbeddingTimeoutMs:  5000,
		VectorTimeoutMs:     3000,
		LexicalTimeoutMs:    3000,
		QueryLogBuffer:      16,
	}
}

type fakeEmbedding struct {
	vec   pgvector.Vector
	err   error
	calls int
}

func (f *fakeEmbedding) GenerateEmbedding(ctx context.Context, text string) (pgvector.Vector, error) {
	f.calls++
	return f.vec, f.err
}
func (f *fakeEmbedding) Dimension() int               { return 3 }
func (f *fakeEmbedding) ModelName() string            { return "fake-embedding" }
func (f *fakeEmbedding) Name() string                 { return "fake" }
func (f *fakeEmbedding) Status() store.ProviderStatus { return store.ProviderStatusActive }

// fakeVectorIndex serves the leading k hits of a prepared ranked list, the
// way a real index serves a widened pool.
type fakeVectorIndex struct {
	hits   []models.RawHit
	err    error
	ks     []int
	owners []string
}

func (f *fakeVectorIndex) Query(ctx context.Context, vec pgvector.Vector, k int, ownerID string) ([]models.RawHit, error) {
	f.ks = append(f.ks, k)
	f.owners = append(f.owners, ownerID)
	if f.err != nil {
		return nil, f.err
	}
	if k > len(f.hits) {
		k = len(f.hits)
	}
	return f.hits[:k], nil
}
func (f *fakeVectorIndex) Ping(ctx context.Context) error { return nil }
func (f *fakeVectorIndex) Close() error                   { return nil }

type fakeLexicalIndex struct {
	hits   []models.RawHit
	err    error
	ks     []int
	owners []string
}

func (f *fakeLexicalIndex) Query(ctx context.Context, query string, k int, ownerID string) ([]models.RawHit, error) {
	f.ks = append(f.ks, k)
	f.owners = append(f.owners, ownerID)
	if f.err != nil {
		return nil, f.err
	}
	if k > len(f.hits) {
		k = len(f.hits)
	}
	return f.hits[:k], nil
}

type fakeMetadataStore struct {
	metas map[int64]*models.ContentMeta
	err   error
	calls int
}

func (f *fakeMetadataStore) GetByIDs(ctx context.Context, ids []int64) ([]*models.ContentMeta, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.ContentMeta, 0, len(ids))
	for _, id := range ids {
		if m, ok := f.metas[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}
func (f *fakeMetadataStore) Ping(ctx context.Context) error { return nil }

type recordingRecorder struct {
	mu      sync.Mutex
	entries []models.QueryLogEntry
}

func (r *recordingRecorder) Record(entry models.QueryLogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingRecorder) last() (models.QueryLogEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return models.QueryLogEntry{}, false
	}
	return r.entries[len(r.entries)-1], true
}

type fakeQueryLogStore struct {
	mu      sync.Mutex
	entries []*models.QueryLogEntry
	started chan struct{}
	release chan struct{}
}

func (f *fakeQueryLogStore) RecordQuery(ctx context.Context, entry *models.QueryLogEntry) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e := *entry
	f.entries = append(f.entries, &e)
	return nil
}

func (f *fakeQueryLogStore) ListQueries(ctx context.Context, ownerID string, limit int) ([]*models.QueryLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.QueryLogEntry(nil), f.entries...), nil
}

func (f *fakeQueryLogStore) queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Query)
	}
	return out
}

func meta(id int64, owner string, ct models.ContentType, tags []string, created time.Time) *models.ContentMeta {
	return &models.ContentMeta{
		ID:            id,
		Title:         "item",
		ContentType:   ct,
		Tags:          tags,
		CreatedAt:     created,
		OwnerID:       owner,
		ExcerptSource: "Some stored body text.",
	}
}
