// Package handler exposes the corpus over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/middleware"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
}

// CorpusInfo describes the served corpus for the stats endpoint.
type CorpusInfo struct {
	Root      string            `json:"root"`
	Documents int               `json:"documents"`
	Terms     int               `json:"terms"`
	Language  string            `json:"language"`
	Build     corpus.BuildStats `json:"build"`
}

// Config carries the optional collaborators of a Handler. Nil fields
// disable the feature.
type Config struct {
	Cache        *cache.QueryCache
	Collector    *analytics.Collector
	Metrics      *metrics.Metrics
	Corpus       CorpusInfo
	DefaultLimit int
	MaxResults   int
}

type Handler struct {
	executor SearchExecutor
	cfg      Config
	logger   *slog.Logger
}

func New(exec SearchExecutor, cfg Config) *Handler {
	return &Handler{
		executor: exec,
		cfg:      cfg,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /search", h.Search)
	mux.HandleFunc("GET /api/v1/search", h.SearchDetailed)
	mux.HandleFunc("GET /api/v1/corpus/stats", h.CorpusStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Search answers GET /search?query=... with a JSON array of [path, score]
// pairs, best first.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	result, ok := h.run(w, r)
	if !ok {
		return
	}
	pairs := make([][2]any, len(result.Results))
	for i, d := range result.Results {
		pairs[i] = [2]any{d.Path, d.Score}
	}
	h.writeJSON(w, http.StatusOK, pairs)
}

// SearchDetailed answers GET /api/v1/search with the full SearchResult.
func (h *Handler) SearchDetailed(w http.ResponseWriter, r *http.Request) {
	result, ok := h.run(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) (*executor.SearchResult, bool) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	params := r.URL.Query()
	if !params.Has("query") && !params.Has("q") {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'query' is required"))
		return nil, false
	}
	query := params.Get("query")
	if !params.Has("query") {
		query = params.Get("q")
	}
	limit, err := h.parseLimit(params.Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}

	plan := parser.Parse(query)
	var result *executor.SearchResult
	cacheHit := false
	switch {
	case plan.Empty():
		result, err = h.executor.Execute(ctx, plan, limit)
	case h.cfg.Cache != nil:
		result, cacheHit, err = h.cfg.Cache.GetOrCompute(ctx, plan, limit, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, plan, limit)
		})
	default:
		result, err = h.executor.Execute(ctx, plan, limit)
	}
	latency := time.Since(start)
	if err != nil {
		log.Error("search failed", "query", query, "error", err)
		h.observe("error", cacheHit, latency, 0)
		h.writeError(w, fmt.Errorf("%w: %w", apperrors.ErrInternal, err))
		return nil, false
	}

	resultType := "hit"
	if result.TotalHits == 0 {
		resultType = "zero_result"
	}
	h.observe(resultType, cacheHit, latency, len(result.Results))
	log.Info("search completed",
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.cfg.Collector != nil {
		h.cfg.Collector.Track(analytics.SearchEvent{
			Query:     query,
			Terms:     plan.Terms,
			TotalHits: result.TotalHits,
			Returned:  len(result.Results),
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}
	return result, true
}

// parseLimit resolves the limit parameter. Empty means the configured
// default; values above MaxResults are clamped.
func (h *Handler) parseLimit(raw string) (int, error) {
	limit := h.cfg.DefaultLimit
	if raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return 0, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}
	if maxResults := h.cfg.MaxResults; maxResults > 0 && (limit <= 0 || limit > maxResults) {
		limit = maxResults
	}
	return limit, nil
}

func (h *Handler) observe(resultType string, cacheHit bool, latency time.Duration, returned int) {
	m := h.cfg.Metrics
	if m == nil {
		return
	}
	status := "miss"
	if cacheHit {
		status = "hit"
	}
	m.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	m.SearchLatency.WithLabelValues(status).Observe(latency.Seconds())
	if resultType != "error" {
		m.SearchResultsCount.Observe(float64(returned))
	}
}

func (h *Handler) CorpusStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.cfg.Corpus)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cfg.Cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.cfg.Cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, fmt.Errorf("%w: %w", apperrors.ErrInternal, err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to a status code. Internal details are not exposed.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := http.StatusText(status)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
