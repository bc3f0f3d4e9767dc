package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"recall/internal/config"
	"recall/internal/models"
	"recall/internal/store"
)

// SearchModeCombined always runs both backends; SearchModeFallback runs the
// lexical backend only when the vector path is unavailable or comes back
// with fewer candidates than the requested limit. The mode is deployment
// configuration, not a per-call choice.
const (
	SearchModeCombined = "combined"
	SearchModeFallback = "fallback"
)

// SearchServiceDeps collects the collaborators a SearchService needs. All
// references are injected once at startup; the service holds no other state.
type SearchServiceDeps struct {
	Embedding store.EmbeddingService
	Vector    store.VectorIndex
	Lexical   store.LexicalIndex
	Metadata  store.MetadataStore
	QueryLog  QueryRecorder
	Config    config.SearchConfig
}

// SearchService orchestrates hybrid search: it validates input, coordinates
// the semantic and lexical backends, fuses and filters their hits, and
// hydrates the final owner-scoped response.
type SearchService struct {
	embedding store.EmbeddingService
	vector    store.VectorIndex
	lexical   store.LexicalIndex
	metadata  store.MetadataStore
	queryLog  QueryRecorder
	fuser     *ResultFuser
	filter    *FilterEngine
	excerpts  *ExcerptBuilder
	cfg       config.SearchConfig
}

func NewSearchService(deps SearchServiceDeps) *SearchService {
	queryLog := deps.QueryLog
	if queryLog == nil {
		queryLog = NoopQueryRecorder{}
	}
	return &SearchService{
		embedding: deps.Embedding,
		vector:    deps.Vector,
		lexical:   deps.Lexical,
		metadata:  deps.Metadata,
		queryLog:  queryLog,
		fuser:     NewResultFuser(),
		filter:    NewFilterEngine(deps.Metadata, deps.Config.WideningRounds),
		excerpts:  NewExcerptBuilder(0),
		cfg:       deps.Config,
	}
}

// backendRun captures one widening round's worth of backend calls.
type backendRun struct {
	vectorHits  []models.RawHit
	lexicalHits []models.RawHit
	vectorErr   error
	lexicalErr  error
	vectorRan   bool
	lexicalRan  bool
}

// Search is the single entry point callers use. Recoverable backend
// failures degrade the search rather than failing it; only invalid input or
// the loss of every backend produces an error.
func (s *SearchService) Search(ctx context.Context, query models.SearchQuery) (*models.SearchResponse, error) {
	q, err := s.validate(query)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	// The embedding is generated once and reused across widening rounds so
	// a widened pool never pays the provider twice.
	queryVector, embedErr := s.embedQuery(ctx, q.Query)
	vectorUsable := embedErr == nil
	if embedErr != nil {
		log.WithError(embedErr).WithFields(log.Fields{
			"backend": "embedding",
			"owner":   q.OwnerID,
			"elapsed": time.Since(start),
		}).Warn("embedding unavailable, vector search skipped")
	}

	round := 0
	run := s.runBackends(ctx, q, queryVector, vectorUsable, s.poolSize(q.Limit, round))
	if s.allSourcesDown(run) {
		return nil, fmt.Errorf("%w: vector: %v, lexical: %v",
			models.ErrAllSourcesUnavailable, run.vectorErr, run.lexicalErr)
	}

	fused := s.fuser.Fuse(run.vectorHits, run.lexicalHits)

	fetchMore := func(ctx context.Context, exclude map[int64]struct{}) ([]models.ScoredResult, error) {
		prev := s.poolSize(q.Limit, round)
		round++
		k := s.poolSize(q.Limit, round)
		if k <= prev {
			// Pool already at its cap, widening cannot grow it.
			return nil, nil
		}
		wider := s.runBackends(ctx, q, queryVector, vectorUsable && run.vectorErr == nil, k)
		if s.allSourcesDown(wider) {
			return nil, fmt.Errorf("%w: vector: %v, lexical: %v",
				models.ErrAllSourcesUnavailable, wider.vectorErr, wider.lexicalErr)
		}
		merged := s.fuser.Fuse(wider.vectorHits, wider.lexicalHits)
		fresh := merged[:0:0]
		for _, c := range merged {
			if _, ok := exclude[c.ID]; !ok {
				fresh = append(fresh, c)
			}
		}
		return fresh, nil
	}

	filtered, metaByID, err := s.filter.Apply(ctx, fused, q.Filters, q.Limit, q.OwnerID, fetchMore)
	if err != nil {
		return nil, fmt.Errorf("filter candidates: %w", err)
	}

	results := s.hydrate(filtered, metaByID)
	method := s.methodUsed(filtered, run)

	response := &models.SearchResponse{
		Results:          results,
		TotalResults:     len(results),
		SearchMethodUsed: method,
		AppliedFilters:   q.Filters,
	}

	// Fire and forget; the recorder guarantees this never blocks.
	s.queryLog.Record(models.QueryLogEntry{
		Query:       q.Query,
		OwnerID:     q.OwnerID,
		ResultCount: len(results),
		Method:      method,
		ElapsedMs:   time.Since(start).Milliseconds(),
		ExecutedAt:  start,
	})

	return response, nil
}

// validate normalizes and checks the request before any external call is
// made. A zero Limit means "unset" and receives the configured default;
// out-of-range limits are rejected or clamped per the configured policy.
func (s *SearchService) validate(q models.SearchQuery) (models.SearchQuery, error) {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return q, models.NewValidationError("query", "must not be empty")
	}
	if len(q.Query) > s.cfg.MaxQueryLength {
		return q, models.NewValidationError("query", fmt.Sprintf("exceeds maximum length of %d", s.cfg.MaxQueryLength))
	}
	if strings.TrimSpace(q.OwnerID) == "" {
		return q, models.NewValidationError("ownerId", "must not be empty")
	}

	if q.Limit == 0 {
		q.Limit = s.cfg.DefaultLimit
	}
	if q.Limit < 1 || q.Limit > s.cfg.MaxLimit {
		if s.cfg.LimitPolicy == "clamp" {
			if q.Limit < 1 {
				q.Limit = 1
			} else {
				q.Limit = s.cfg.MaxLimit
			}
		} else {
			return q, models.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", s.cfg.MaxLimit))
		}
	}

	for _, ct := range q.Filters.ContentTypes {
		if _, ok := models.KnownContentTypes[ct]; !ok {
			return q, models.NewValidationError("contentTypes", fmt.Sprintf("unknown content type %q", ct))
		}
	}
	tags := q.Filters.Tags[:0:0]
	for _, t := range q.Filters.Tags {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	q.Filters.Tags = tags
	if q.Filters.DateFrom != nil && q.Filters.DateTo != nil && q.Filters.DateFrom.After(*q.Filters.DateTo) {
		return q, models.NewValidationError("dateRange", "dateFrom must not be after dateTo")
	}
	return q, nil
}

func (s *SearchService) embedQuery(ctx context.Context, query string) (pgvector.Vector, error) {
	if s.embedding == nil || s.vector == nil {
		return pgvector.Vector{}, store.ErrProviderUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.EmbeddingTimeoutMs)*time.Millisecond)
	defer cancel()
	return s.embedding.GenerateEmbedding(ctx, query)
}

// runBackends executes one round of backend calls with pool size k. In
// combined mode both backends run concurrently; a failure in one never
// cancels or invalidates the other. In fallback mode the lexical backend
// runs only when the vector path is unavailable or thin.
func (s *SearchService) runBackends(ctx context.Context, q models.SearchQuery, vec pgvector.Vector, vectorUsable bool, k int) backendRun {
	var run backendRun

	runLexical := s.lexical != nil && s.cfg.Mode != SearchModeFallback

	if vectorUsable && runLexical {
		g := new(errgroup.Group)
		g.Go(func() error {
			run.vectorRan = true
			run.vectorHits, run.vectorErr = s.queryVector(ctx, vec, k, q.OwnerID)
			return nil
		})
		g.Go(func() error {
			run.lexicalRan = true
			run.lexicalHits, run.lexicalErr = s.queryLexical(ctx, q.Query, k, q.OwnerID)
			return nil
		})
		g.Wait()
	} else if vectorUsable {
		run.vectorRan = true
		run.vectorHits, run.vectorErr = s.queryVector(ctx, vec, k, q.OwnerID)
	}

	if !run.vectorRan || run.vectorErr != nil || (s.cfg.Mode == SearchModeFallback && len(run.vectorHits) < q.Limit) {
		if s.lexical != nil && !run.lexicalRan {
			run.lexicalRan = true
			run.lexicalHits, run.lexicalErr = s.queryLexical(ctx, q.Query, k, q.OwnerID)
		}
	}

	if run.vectorErr != nil {
		log.WithError(run.vectorErr).WithFields(log.Fields{
			"backend": "vector",
			"owner":   q.OwnerID,
			"k":       k,
		}).Warn("vector backend degraded")
	}
	if run.lexicalErr != nil {
		log.WithError(run.lexicalErr).WithFields(log.Fields{
			"backend": "lexical",
			"owner":   q.OwnerID,
			"k":       k,
		}).Warn("lexical backend degraded")
	}
	return run
}

// allSourcesDown reports whether no backend produced a usable hit set. A
// backend that ran and succeeded (even with zero hits) keeps the search
// alive: genuinely empty corpora are an empty success, not an outage.
func (s *SearchService) allSourcesDown(run backendRun) bool {
	vectorOK := run.vectorRan && run.vectorErr == nil
	lexicalOK := run.lexicalRan && run.lexicalErr == nil
	return !vectorOK && !lexicalOK
}

func (s *SearchService) queryVector(ctx context.Context, vec pgvector.Vector, k int, ownerID string) ([]models.RawHit, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.VectorTimeoutMs)*time.Millisecond)
	defer cancel()
	return s.vector.Query(ctx, vec, k, ownerID)
}

func (s *SearchService) queryLexical(ctx context.Context, query string, k int, ownerID string) ([]models.RawHit, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.LexicalTimeoutMs)*time.Millisecond)
	defer cancel()
	return s.lexical.Query(ctx, query, k, ownerID)
}

// poolSize over-fetches relative to limit and doubles per widening round,
// bounded by the configured cap.
func (s *SearchService) poolSize(limit, round int) int {
	k := limit * s.cfg.CandidateMultiplier
	for i := 0; i < round; i++ {
		k *= 2
		if k >= s.cfg.MaxCandidatePool {
			break
		}
	}
	if k > s.cfg.MaxCandidatePool {
		k = s.cfg.MaxCandidatePool
	}
	return k
}

func (s *SearchService) hydrate(filtered []models.ScoredResult, metaByID map[int64]*models.ContentMeta) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(filtered))
	for _, c := range filtered {
		meta := metaByID[c.ID]
		if meta == nil {
			continue
		}
		results = append(results, models.SearchResult{
			ID:             c.ID,
			Title:          meta.Title,
			Excerpt:        s.excerpts.Build(meta.ExcerptSource),
			ContentType:    meta.ContentType,
			RelevanceScore: c.Score,
			Tags:           meta.Tags,
			CreatedAt:      meta.CreatedAt,
			OwnerID:        meta.OwnerID,
		})
	}
	return results
}

// methodUsed reports which backends contributed to the final result set,
// falling back to which backends ran when the set is empty.
func (s *SearchService) methodUsed(filtered []models.ScoredResult, run backendRun) models.SearchMethod {
	var hasVector, hasLexical bool
	for _, r := range filtered {
		switch r.Source {
		case models.SourceCombined:
			return models.MethodCombined
		case models.SourceVector:
			hasVector = true
		case models.SourceLexical:
			hasLexical = true
		}
	}
	switch {
	case hasVector && hasLexical:
		return models.MethodCombined
	case hasVector:
		return models.MethodVector
	case hasLexical:
		return models.MethodFTS
	}

	vectorOK := run.vectorRan && run.vectorErr == nil
	lexicalOK := run.lexicalRan && run.lexicalErr == nil
	switch {
	case vectorOK && lexicalOK:
		return models.MethodCombined
	case vectorOK:
		return models.MethodVector
	default:
		return models.MethodFTS
	}
}
