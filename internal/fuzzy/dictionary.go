// Package fuzzy implements bounded-edit-distance term lookup: an immutable
// FST over the sorted term dictionary intersected with a Levenshtein
// automaton, plus the LRU cache in front of it.
package fuzzy

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"sort"

	editdist "github.com/agnivade/levenshtein"
	"github.com/blevesearch/vellum"
	lev "github.com/blevesearch/vellum/levenshtein"
)

// MaxDistance is the largest edit budget the dictionary supports. The
// per-token budget formula never exceeds it.
const MaxDistance = 3

// Match is one dictionary term within the requested edit distance of the
// query term, with the exact distance recomputed for ranking.
type Match struct {
	Term     string `json:"term"`
	Distance int    `json:"distance"`
}

// Dictionary is the immutable fuzzy term dictionary. It is built once from
// the full set of distinct indexed terms and shared read-only across all
// queries.
type Dictionary struct {
	fst      *vellum.FST
	builders [MaxDistance + 1]*lev.LevenshteinAutomatonBuilder
	logger   *slog.Logger
}

// NewDictionary builds the sorted FST and precomputes one Levenshtein
// automaton builder per supported edit distance.
func NewDictionary(terms []string) (*Dictionary, error) {
	sorted := make([]string, len(terms))
	copy(sorted, terms)
	sort.Strings(sorted)

	var buf bytes.Buffer
	builder, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, fmt.Errorf("creating fst builder: %w", err)
	}
	for i, term := range sorted {
		if i > 0 && term == sorted[i-1] {
			continue
		}
		if err := builder.Insert([]byte(term), uint64(i)); err != nil {
			return nil, fmt.Errorf("inserting term %q: %w", term, err)
		}
	}
	if err := builder.Close(); err != nil {
		return nil, fmt.Errorf("finalising fst: %w", err)
	}
	fst, err := vellum.Load(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("loading fst: %w", err)
	}

	d := &Dictionary{
		fst:    fst,
		logger: slog.Default().With("component", "fuzzy-dictionary"),
	}
	for dist := 1; dist <= MaxDistance; dist++ {
		lb, err := lev.NewLevenshteinAutomatonBuilder(uint8(dist), false)
		if err != nil {
			return nil, fmt.Errorf("building levenshtein automaton builder for distance %d: %w", dist, err)
		}
		d.builders[dist] = lb
	}
	return d, nil
}

// Len returns the number of terms in the dictionary.
func (d *Dictionary) Len() int {
	return int(d.fst.Len())
}

// FuzzyMatch returns every dictionary term within maxEdits of term, each
// paired with its exact edit distance. The automaton only guarantees "within
// maxEdits", so the precise distance is recomputed per accepted term. An
// empty result is a valid outcome, never an error; internal automaton
// failures degrade to an empty result as well.
func (d *Dictionary) FuzzyMatch(term string, maxEdits int) []Match {
	if term == "" {
		return nil
	}
	if maxEdits <= 0 {
		if _, exists, err := d.fst.Get([]byte(term)); err == nil && exists {
			return []Match{{Term: term, Distance: 0}}
		}
		return nil
	}
	if maxEdits > MaxDistance {
		maxEdits = MaxDistance
	}

	dfa, err := d.builders[maxEdits].BuildDfa(term, uint8(maxEdits))
	if err != nil {
		d.logger.Warn("levenshtein dfa build failed", "term", term, "max_edits", maxEdits, "error", err)
		return nil
	}

	var matches []Match
	itr, err := d.fst.Search(dfa, nil, nil)
	for err == nil {
		key, _ := itr.Current()
		matched := string(key)
		matches = append(matches, Match{
			Term:     matched,
			Distance: editdist.ComputeDistance(term, matched),
		})
		err = itr.Next()
	}
	if err != vellum.ErrIteratorDone {
		d.logger.Warn("fst traversal aborted", "term", term, "error", err)
	}
	return matches
}

// ErrorBudget returns the edit budget for one query token. The last
// whitespace-separated token of a query is often mid-typing, so it gets more
// slack; short earlier tokens get minimal slack to keep the candidate set
// from exploding.
func ErrorBudget(token string, isLast bool) int {
	if isLast {
		return int(math.Floor(math.Min(math.Pow(float64(len(token)), 0.8), MaxDistance)))
	}
	if len(token) > 4 {
		return 2
	}
	return 1
}
