package models

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies which retrieval method produced a hit or result.
type Source string

const (
	SourceVector   Source = "vector"
	SourceLexical  Source = "lexical"
	SourceCombined Source = "combined"
)

// SearchMethod is the caller-facing label for which backends contributed
// to a response. Lexical-only responses report "fts".
type SearchMethod string

const (
	MethodVector   SearchMethod = "vector"
	MethodFTS      SearchMethod = "fts"
	MethodCombined SearchMethod = "combined"
)

// ContentType enumerates the kinds of captured items.
type ContentType string

const (
	ContentTypeNote     ContentType = "note"
	ContentTypeDocument ContentType = "document"
	ContentTypeBookmark ContentType = "bookmark"
	ContentTypeImage    ContentType = "image"
	ContentTypeAudio    ContentType = "audio"
)

// KnownContentTypes lists every valid ContentType value.
var KnownContentTypes = map[ContentType]struct{}{
	ContentTypeNote:     {},
	ContentTypeDocument: {},
	ContentTypeBookmark: {},
	ContentTypeImage:    {},
	ContentTypeAudio:    {},
}

// Filters restricts a search to a structural subset of the corpus.
// Tags use AND semantics: a result must carry every listed tag.
// DateFrom/DateTo are inclusive bounds on createdAt.
type Filters struct {
	ContentTypes []ContentType `json:"contentTypes,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	DateFrom     *time.Time    `json:"dateFrom,omitempty"`
	DateTo       *time.Time    `json:"dateTo,omitempty"`
}

// IsZero reports whether no filter dimension is set.
func (f Filters) IsZero() bool {
	return len(f.ContentTypes) == 0 && len(f.Tags) == 0 && f.DateFrom == nil && f.DateTo == nil
}

// SearchQuery is a single search request. Limit zero means "unset" and
// receives the configured default before validation.
type SearchQuery struct {
	Query   string  `json:"query"`
	Limit   int     `json:"limit"`
	Filters Filters `json:"filters"`
	OwnerID string  `json:"ownerId"`
}

// RawHit is a backend hit on its source's native score scale. RawScore is
// never compared across sources before normalization: for vector hits it is
// a cosine distance, for lexical hits an engine rank normalized by the
// adapter to higher-is-better.
type RawHit struct {
	ID        int64
	RawScore  float64
	Source    Source
	CreatedAt time.Time
}

// ScoredResult is a fused, normalized candidate. Score is always in [0,1].
type ScoredResult struct {
	ID        int64
	Score     float64
	Source    Source
	CreatedAt time.Time
}

// ContentMeta is the metadata record backing filtering and hydration.
type ContentMeta struct {
	ID            int64       `db:"id"`
	Title         string      `db:"title"`
	ContentType   ContentType `db:"content_type"`
	Tags          []string    `db:"tags"`
	CreatedAt     time.Time   `db:"created_at"`
	OwnerID       string      `db:"owner_id"`
	ExcerptSource string      `db:"excerpt_source"`
}

// HasAllTags reports whether the record carries every tag in want.
func (m *ContentMeta) HasAllTags(want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(m.Tags))
	for _, t := range m.Tags {
		have[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}

// SearchResult is a hydrated, caller-facing record.
type SearchResult struct {
	ID             int64       `json:"id"`
	Title          string      `json:"title"`
	Excerpt        string      `json:"excerpt"`
	ContentType    ContentType `json:"contentType"`
	RelevanceScore float64     `json:"relevanceScore"`
	Tags           []string    `json:"tags"`
	CreatedAt      time.Time   `json:"createdAt"`
	OwnerID        string      `json:"ownerId"`
}

// SearchResponse is the final ranked, deduplicated, owner-scoped answer.
type SearchResponse struct {
	Results          []SearchResult `json:"results"`
	TotalResults     int            `json:"totalResults"`
	SearchMethodUsed SearchMethod   `json:"searchMethodUsed"`
	AppliedFilters   Filters        `json:"appliedFilters"`
}

// QueryLogEntry is an append-only diagnostic record of one search call.
type QueryLogEntry struct {
	ID          uuid.UUID    `db:"id"`
	Query       string       `db:"query"`
	OwnerID     string       `db:"owner_id"`
	ResultCount int          `db:"result_count"`
	Method      SearchMethod `db:"method"`
	ElapsedMs   int64        `db:"elapsed_ms"`
	ExecutedAt  time.Time    `db:"executed_at"`
}
