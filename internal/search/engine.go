package search

import (
	"context"
	"time"

	"github.com/devashish-g/titleseek/internal/fuzzy"
	"github.com/devashish-g/titleseek/internal/index"
	"github.com/devashish-g/titleseek/pkg/logger"
	"github.com/devashish-g/titleseek/pkg/metrics"
)

// Engine combines the aggregator and ranker behind the one search operation
// the transport exposes. The store, index, and dictionary it holds are built
// before serving begins and treated as read-only afterwards; the fuzzy cache
// is the only mutable shared state on the query path.
type Engine struct {
	store   *index.Store
	inv     *index.Inverted
	agg     *Aggregator
	ranker  *Ranker
	metrics *metrics.Metrics
}

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	TopN            int
	MaxCombinations int
	Metrics         *metrics.Metrics
}

// NewEngine wires an engine over an already built store, index, dictionary,
// and cache. cache may be nil; results are identical either way.
func NewEngine(store *index.Store, inv *index.Inverted, dict *fuzzy.Dictionary, cache *fuzzy.Cache, opts Options) *Engine {
	return &Engine{
		store:   store,
		inv:     inv,
		agg:     NewAggregator(inv, dict, cache),
		ranker:  NewRanker(store, opts.TopN, opts.MaxCombinations),
		metrics: opts.Metrics,
	}
}

// Search normalises the query, aggregates fuzzy candidates, and returns the
// ranked, highlighted results. No query can fail: an empty or unmatched
// query yields an empty list.
func (e *Engine) Search(ctx context.Context, query string) []Result {
	start := time.Now()

	normalized := index.NormalizeString(query)
	candidates := e.agg.FindMatches(normalized)
	results := e.ranker.Rank(normalized, candidates)

	elapsed := time.Since(start)
	logger.FromContext(ctx).Debug("search completed",
		"query", query,
		"candidates", len(candidates),
		"returned", len(results),
		"elapsed", elapsed,
	)
	if e.metrics != nil {
		e.metrics.SearchLatency.Observe(elapsed.Seconds())
		e.metrics.SearchResultsCount.Observe(float64(len(results)))
		switch {
		case len(normalized) == 0:
			e.metrics.SearchQueriesTotal.WithLabelValues("empty_query").Inc()
		case len(results) == 0:
			e.metrics.SearchQueriesTotal.WithLabelValues("zero_result").Inc()
		default:
			e.metrics.SearchQueriesTotal.WithLabelValues("hit").Inc()
		}
	}
	return results
}

// DocCount reports the number of stored documents.
func (e *Engine) DocCount() int {
	return e.store.Len()
}

// TermCount reports the number of distinct indexed terms.
func (e *Engine) TermCount() int {
	return e.inv.Len()
}
