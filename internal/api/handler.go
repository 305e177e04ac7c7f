// Package api exposes the HTTP surface of the similarity service: catalog
// CRUD, similarity queries, and operational endpoints. Handlers depend on
// small interfaces so tests run against in-memory fakes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mediasearch/similarity-service/internal/analytics"
	"github.com/mediasearch/similarity-service/internal/cache"
	"github.com/mediasearch/similarity-service/internal/catalog"
	"github.com/mediasearch/similarity-service/internal/engine/ranker"
	"github.com/mediasearch/similarity-service/pkg/config"
	apperrors "github.com/mediasearch/similarity-service/pkg/errors"
	"github.com/mediasearch/similarity-service/pkg/logger"
	"github.com/mediasearch/similarity-service/pkg/metrics"
)

// Catalog is the record store the handlers read and write.
type Catalog interface {
	List(ctx context.Context) ([]catalog.Record, error)
	Get(ctx context.Context, id int64) (*catalog.Record, error)
	Create(ctx context.Context, r *catalog.Record) error
	Delete(ctx context.Context, id int64) error
}

// Similarity answers ranked similarity queries.
type Similarity interface {
	SimilarToRecord(id int64, topN int) ([]ranker.ScoredRecord, error)
	SimilarToQuery(text string, topN int) ([]ranker.ScoredRecord, error)
	Ready() bool
}

// ChangePublisher emits catalog change events after mutations.
type ChangePublisher interface {
	PublishChange(ctx context.Context, eventType string, recordID int64)
}

// RebuildTrigger requests an index rebuild.
type RebuildTrigger interface {
	Request(reason string)
}

// Handler holds the HTTP handlers and their collaborators. events, cache,
// collector, rebuilder, and metrics may be nil; the affected features
// degrade.
type Handler struct {
	store     Catalog
	engine    Similarity
	events    ChangePublisher
	cache     *cache.ResultCache
	collector *analytics.Collector
	rebuilder RebuildTrigger
	metrics   *metrics.Metrics
	cfg       config.EngineConfig
	logger    *slog.Logger
}

// New creates a Handler.
func New(
	store Catalog,
	engine Similarity,
	events ChangePublisher,
	resultCache *cache.ResultCache,
	collector *analytics.Collector,
	rebuilder RebuildTrigger,
	m *metrics.Metrics,
	cfg config.EngineConfig,
) *Handler {
	return &Handler{
		store:     store,
		engine:    engine,
		events:    events,
		cache:     resultCache,
		collector: collector,
		rebuilder: rebuilder,
		metrics:   m,
		cfg:       cfg,
		logger:    slog.Default().With("component", "api"),
	}
}

// Register wires all routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/records", h.ListRecords)
	mux.HandleFunc("POST /api/v1/records", h.CreateRecord)
	mux.HandleFunc("GET /api/v1/records/{id}", h.GetRecord)
	mux.HandleFunc("DELETE /api/v1/records/{id}", h.DeleteRecord)
	mux.HandleFunc("GET /api/v1/records/{id}/similar", h.Similar)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/index/rebuild", h.TriggerRebuild)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
}

type createRecordRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Genres      []string `json:"genres"`
}

type recordListResponse struct {
	Records []catalog.Record `json:"records"`
	Count   int              `json:"count"`
}

type similarResponse struct {
	RecordID int64                 `json:"record_id,omitempty"`
	Query    string                `json:"query,omitempty"`
	Results  []ranker.ScoredRecord `json:"results"`
	Count    int                   `json:"count"`
}

// ListRecords returns the whole catalog.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		h.handleError(w, r, err, "listing records failed")
		return
	}
	if records == nil {
		records = []catalog.Record{}
	}
	h.writeJSON(w, http.StatusOK, recordListResponse{Records: records, Count: len(records)})
}

// GetRecord returns one record by id.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	record, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err, "fetching record failed")
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

// CreateRecord validates and persists a new record, then publishes a
// change event so the index catches up.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateCreateRequest(&req); err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record := &catalog.Record{
		Title:       req.Title,
		Description: req.Description,
		Genres:      req.Genres,
	}
	if err := h.store.Create(r.Context(), record); err != nil {
		h.handleError(w, r, err, "creating record failed")
		return
	}
	if h.events != nil {
		h.events.PublishChange(r.Context(), catalog.EventRecordCreated, record.ID)
	}
	log.Info("record created", "record_id", record.ID, "title", record.Title)
	h.writeJSON(w, http.StatusCreated, record)
}

// DeleteRecord removes a record and publishes a change event.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err, "deleting record failed")
		return
	}
	if h.events != nil {
		h.events.PublishChange(r.Context(), catalog.EventRecordDeleted, id)
	}
	logger.FromContext(r.Context()).Info("record deleted", "record_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// Similar returns records most similar to the one in the path.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	limit, ok := h.queryLimit(w, r)
	if !ok {
		return
	}

	results, cacheHit, err := h.ranked(r.Context(), cache.RecordKey(id, limit), func() ([]ranker.ScoredRecord, error) {
		return h.engine.SimilarToRecord(id, limit)
	})
	h.recordQueryMetrics("record", start, results, cacheHit, err)
	if err != nil {
		h.handleError(w, r, err, "similarity query failed")
		return
	}
	if h.collector != nil {
		h.collector.Track(analytics.QueryEvent{
			Kind:      analytics.KindRecord,
			RecordID:  id,
			Results:   len(results),
			LatencyMs: time.Since(start).Milliseconds(),
			CacheHit:  cacheHit,
		})
	}
	h.writeJSON(w, http.StatusOK, similarResponse{RecordID: id, Results: results, Count: len(results)})
}

// Search ranks records against free text. An empty or unrecognised query
// returns an empty result list, not an error.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query().Get("q")
	limit, ok := h.queryLimit(w, r)
	if !ok {
		return
	}

	results, cacheHit, err := h.ranked(r.Context(), cache.QueryKey(query, limit), func() ([]ranker.ScoredRecord, error) {
		return h.engine.SimilarToQuery(query, limit)
	})
	h.recordQueryMetrics("text", start, results, cacheHit, err)
	if err != nil {
		h.handleError(w, r, err, "search failed")
		return
	}
	if h.collector != nil {
		h.collector.Track(analytics.QueryEvent{
			Kind:      analytics.KindText,
			Query:     query,
			Results:   len(results),
			LatencyMs: time.Since(start).Milliseconds(),
			CacheHit:  cacheHit,
		})
	}
	h.writeJSON(w, http.StatusOK, similarResponse{Query: query, Results: results, Count: len(results)})
}

// TriggerRebuild requests an asynchronous index rebuild.
func (h *Handler) TriggerRebuild(w http.ResponseWriter, r *http.Request) {
	if h.rebuilder == nil {
		h.writeError(w, http.StatusServiceUnavailable, "rebuilds not available")
		return
	}
	h.rebuilder.Request("manual")
	logger.FromContext(r.Context()).Info("manual rebuild requested")
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "rebuild requested"})
}

// CacheStats reports result-cache hit/miss counts.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	hits, misses := h.cache.Stats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"enabled": true,
		"hits":    hits,
		"misses":  misses,
	})
}

// recordQueryMetrics records outcome, latency, result-count, and cache
// counters for one similarity query.
func (h *Handler) recordQueryMetrics(kind string, start time.Time, results []ranker.ScoredRecord, cacheHit bool, err error) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, apperrors.ErrRecordNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	case len(results) == 0:
		outcome = "empty"
	}
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
	}
	h.metrics.QueriesTotal.WithLabelValues(kind, outcome).Inc()
	h.metrics.QueryLatency.WithLabelValues(kind, cacheStatus).Observe(time.Since(start).Seconds())
	if err == nil {
		h.metrics.QueryResults.Observe(float64(len(results)))
	}
	if h.cache != nil {
		if cacheHit {
			h.metrics.CacheHitsTotal.Inc()
		} else {
			h.metrics.CacheMissesTotal.Inc()
		}
	}
}

// ranked runs computeFn through the result cache when one is configured.
func (h *Handler) ranked(ctx context.Context, key string, computeFn func() ([]ranker.ScoredRecord, error)) ([]ranker.ScoredRecord, bool, error) {
	if h.cache == nil {
		results, err := computeFn()
		return results, false, err
	}
	return h.cache.GetOrCompute(ctx, key, computeFn)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be an integer")
		return 0, false
	}
	return id, true
}

// queryLimit parses the limit parameter, applying the default and capping
// at the configured maximum. Negative values pass through; the engine
// clamps them to zero so the API stays total.
func (h *Handler) queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := h.cfg.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "limit must be an integer")
			return 0, false
		}
		if parsed > h.cfg.MaxResults {
			parsed = h.cfg.MaxResults
		}
		limit = parsed
	}
	return limit, true
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := apperrors.HTTPStatusCode(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(message, "error", err, "status_code", status)
	} else {
		log.Debug(message, "error", err, "status_code", status)
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
