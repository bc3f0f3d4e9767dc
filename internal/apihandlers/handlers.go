package apihandlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"recall/internal/app"
	"recall/internal/models"
)

// ownerHeader carries the authenticated owner identity. Authentication
// itself is delegated upstream; by the time a request reaches these
// handlers the header is trusted.
const ownerHeader = "X-Owner-ID"

type APIHandler struct {
	App *app.App
}

func NewAPIHandler(a *app.App) *APIHandler {
	return &APIHandler{App: a}
}

// SearchHandler maps GET /api/v1/search onto the core Search operation.
// Query params: q, limit, tags (comma-separated), types (comma-separated),
// from, to (RFC 3339).
func (h *APIHandler) SearchHandler(c *gin.Context) {
	query, err := parseSearchQuery(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	resp, err := h.App.SearchService.Search(c.Request.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			BadRequest(c, err.Error())
		case errors.Is(err, models.ErrAllSourcesUnavailable):
			log.WithError(err).Error("search backends unavailable")
			ServiceUnavailable(c, "search is temporarily unavailable, please retry")
		default:
			log.WithError(err).Error("search failed")
			Internal(c, "search failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// HistoryHandler maps GET /api/v1/history onto the query log.
func (h *APIHandler) HistoryHandler(c *gin.Context) {
	ownerID := c.GetHeader(ownerHeader)
	if ownerID == "" {
		BadRequest(c, ownerHeader+" header is required")
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.App.PrimaryStore.ListQueries(c.Request.Context(), ownerID, limit)
	if err != nil {
		log.WithError(err).Error("failed to list query history")
		Internal(c, "failed to list query history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func parseSearchQuery(c *gin.Context) (models.SearchQuery, error) {
	q := models.SearchQuery{
		Query:   c.Query("q"),
		OwnerID: c.GetHeader(ownerHeader),
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.New("limit must be an integer")
		}
		q.Limit = n
	}
	if raw := c.Query("tags"); raw != "" {
		q.Filters.Tags = splitCSV(raw)
	}
	if raw := c.Query("types"); raw != "" {
		for _, t := range splitCSV(raw) {
			q.Filters.ContentTypes = append(q.Filters.ContentTypes, models.ContentType(t))
		}
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, errors.New("from must be an RFC 3339 timestamp")
		}
		q.Filters.DateFrom = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, errors.New("to must be an RFC 3339 timestamp")
		}
		q.Filters.DateTo = &t
	}
	return q, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
