// Package server exposes the search engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/devashish-g/titleseek/internal/fuzzy"
	"github.com/devashish-g/titleseek/internal/search"
	"github.com/devashish-g/titleseek/pkg/logger"
)

// Searcher is the one operation the transport consumes.
type Searcher interface {
	Search(ctx context.Context, query string) []search.Result
}

// SearchResponse is the JSON body of GET /search.
type SearchResponse struct {
	Query       string   `json:"query"`
	Results     []string `json:"results"`
	HTMLResults []string `json:"html_results"`
	Time        int64    `json:"time"`
}

// Handler serves the search and cache-stats endpoints.
type Handler struct {
	engine Searcher
	cache  *fuzzy.Cache
	logger *slog.Logger
}

// New creates a Handler. cache may be nil when caching is disabled.
func New(engine Searcher, cache *fuzzy.Cache) *Handler {
	return &Handler{
		engine: engine,
		cache:  cache,
		logger: slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /search?query=…. An empty or missing query is not an
// error; it returns an empty result list.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("query")
	results := h.engine.Search(ctx, query)

	elapsed := time.Since(start).Milliseconds()
	log.Info("search completed",
		"query", query,
		"returned", len(results),
		"latency_ms", elapsed,
	)

	resp := SearchResponse{
		Query:       query,
		Results:     make([]string, 0, len(results)),
		HTMLResults: make([]string, 0, len(results)),
		Time:        elapsed,
	}
	for _, res := range results {
		resp.Results = append(resp.Results, res.Text)
		resp.HTMLResults = append(resp.HTMLResults, res.Highlighted)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// CacheStats handles GET /cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"entries":  h.cache.Len(),
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}
