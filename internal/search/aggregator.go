// Package search turns per-term fuzzy matches into scored candidate
// documents and ranks them by positional proximity.
package search

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/devashish-g/titleseek/internal/fuzzy"
	"github.com/devashish-g/titleseek/internal/index"
	apperrors "github.com/devashish-g/titleseek/pkg/errors"
)

// Candidate is the per-document accumulation of a query's fuzzy matches:
// how many query tokens matched exactly, and the summed edit distance across
// all tokens.
type Candidate struct {
	ExactMatches int
	TotalEdits   int
}

// Aggregator resolves each query token to fuzzy dictionary matches, maps
// those to postings, and intersects the per-token candidate sets.
type Aggregator struct {
	inv    *index.Inverted
	dict   *fuzzy.Dictionary
	cache  *fuzzy.Cache
	logger *slog.Logger
}

// NewAggregator wires the aggregator. cache may be nil, in which case every
// token goes straight to the dictionary.
func NewAggregator(inv *index.Inverted, dict *fuzzy.Dictionary, cache *fuzzy.Cache) *Aggregator {
	return &Aggregator{
		inv:    inv,
		dict:   dict,
		cache:  cache,
		logger: slog.Default().With("component", "aggregator"),
	}
}

// FindMatches returns the candidate set for a normalised query: documents
// that approximately contain every query token. Tokens are processed left to
// right; a document must survive every token's candidate set (strict AND),
// and its exact-match count and edit distance accumulate across tokens.
//
// Two deduplication rules apply. Within one token's pass, a document is
// credited at most once even when several fuzzy variants of the token occur
// in it. Across the whole query, each (document, position) occurrence can be
// consumed by only one query token; the first token to claim it wins.
func (a *Aggregator) FindMatches(query string) map[uint32]Candidate {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return map[uint32]Candidate{}
	}

	consumed := make(map[index.Posting]struct{})
	var running map[uint32]Candidate

	for i, token := range tokens {
		k := fuzzy.ErrorBudget(token, i == len(tokens)-1)
		matches := a.fuzzyMatch(token, k)

		curr := make(map[uint32]Candidate)
		seenDoc := make(map[uint32]struct{})
		for _, m := range matches {
			term, err := a.inv.Lookup(m.Term)
			if err != nil {
				// The dictionary must mirror the index term set; a miss
				// here means they went stale relative to each other.
				if errors.Is(err, apperrors.ErrTermNotFound) {
					a.logger.Warn("dictionary term missing from index", "term", m.Term)
					continue
				}
				continue
			}
			exact := 0
			if m.Distance == 0 {
				exact = 1
			}
			for _, p := range term.Postings {
				if _, used := consumed[p]; used {
					continue
				}
				if _, dup := seenDoc[p.DocID]; dup {
					continue
				}
				seenDoc[p.DocID] = struct{}{}
				consumed[p] = struct{}{}
				curr[p.DocID] = Candidate{ExactMatches: exact, TotalEdits: m.Distance}
			}
		}

		if running == nil {
			running = curr
			continue
		}
		next := make(map[uint32]Candidate)
		for docID, acc := range running {
			if c, ok := curr[docID]; ok {
				next[docID] = Candidate{
					ExactMatches: acc.ExactMatches + c.ExactMatches,
					TotalEdits:   acc.TotalEdits + c.TotalEdits,
				}
			}
		}
		running = next
	}

	return running
}

func (a *Aggregator) fuzzyMatch(token string, maxEdits int) []fuzzy.Match {
	if a.cache == nil {
		return a.dict.FuzzyMatch(token, maxEdits)
	}
	return a.cache.GetOrCompute(token, maxEdits, func() []fuzzy.Match {
		return a.dict.FuzzyMatch(token, maxEdits)
	})
}
