package search

import (
	"testing"

	"github.com/devashish-g/titleseek/internal/fuzzy"
	"github.com/devashish-g/titleseek/internal/index"
)

func buildCorpus(t *testing.T, docs ...string) (*index.Store, *index.Inverted, *fuzzy.Dictionary) {
	t.Helper()
	store := index.NewStore()
	inv := index.NewInverted()
	for _, text := range docs {
		id := store.Add(text)
		inv.IndexDocument(id, index.Normalize(text))
	}
	dict, err := fuzzy.NewDictionary(inv.Terms())
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}
	return store, inv, dict
}

func TestFindMatchesANDSemantics(t *testing.T) {
	_, inv, dict := buildCorpus(t,
		"alpha",      // doc 0
		"alpha beta", // doc 1
	)
	agg := NewAggregator(inv, dict, nil)

	got := agg.FindMatches("alpha beta")
	if _, ok := got[0]; ok {
		t.Error("document 0 lacks beta and must be intersected away")
	}
	cand, ok := got[1]
	if !ok {
		t.Fatal("document 1 contains both tokens and must survive")
	}
	if cand.ExactMatches != 2 || cand.TotalEdits != 0 {
		t.Fatalf("candidate = %+v, want {2 0}", cand)
	}
}

func TestFindMatchesFuzzyAccumulatesEdits(t *testing.T) {
	_, inv, dict := buildCorpus(t, "alpha beta")
	agg := NewAggregator(inv, dict, nil)

	got := agg.FindMatches("alpha betr")
	cand, ok := got[0]
	if !ok {
		t.Fatal("document 0 should match alpha exactly and beta fuzzily")
	}
	if cand.ExactMatches != 1 {
		t.Errorf("exact matches = %d, want 1", cand.ExactMatches)
	}
	if cand.TotalEdits != 1 {
		t.Errorf("total edits = %d, want 1", cand.TotalEdits)
	}
}

func TestFindMatchesDedupWithinToken(t *testing.T) {
	// Both "cat" and "cta" are fuzzy variants of the query token; the
	// document may only be credited once for it.
	_, inv, dict := buildCorpus(t, "cat cta")
	agg := NewAggregator(inv, dict, nil)

	got := agg.FindMatches("cat")
	cand, ok := got[0]
	if !ok {
		t.Fatal("document 0 should match")
	}
	if cand.ExactMatches != 1 || cand.TotalEdits != 0 {
		t.Fatalf("candidate = %+v, want single exact credit {1 0}", cand)
	}
}

func TestFindMatchesGlobalPostingDedup(t *testing.T) {
	// One occurrence of "the" cannot satisfy two query tokens, but two
	// occurrences can.
	_, inv, dict := buildCorpus(t,
		"the end", // doc 0: single "the"
		"the the", // doc 1: two of them
	)
	agg := NewAggregator(inv, dict, nil)

	got := agg.FindMatches("the the")
	if _, ok := got[0]; ok {
		t.Error("document 0 has one occurrence and cannot satisfy both tokens")
	}
	cand, ok := got[1]
	if !ok {
		t.Fatal("document 1 has two occurrences and must survive")
	}
	if cand.ExactMatches != 2 {
		t.Fatalf("exact matches = %d, want 2", cand.ExactMatches)
	}
}

func TestFindMatchesEmptyQuery(t *testing.T) {
	_, inv, dict := buildCorpus(t, "alpha")
	agg := NewAggregator(inv, dict, nil)

	if got := agg.FindMatches(""); len(got) != 0 {
		t.Fatalf("empty query = %v, want empty map", got)
	}
	if got := agg.FindMatches("   "); len(got) != 0 {
		t.Fatalf("blank query = %v, want empty map", got)
	}
}

func TestFindMatchesUnknownToken(t *testing.T) {
	_, inv, dict := buildCorpus(t, "alpha beta")
	agg := NewAggregator(inv, dict, nil)

	// A token with no fuzzy matches empties the intersection.
	if got := agg.FindMatches("alpha zzzzzzzzzz"); len(got) != 0 {
		t.Fatalf("query with unmatched token = %v, want empty", got)
	}
}

func TestFindMatchesCacheTransparent(t *testing.T) {
	_, inv, dict := buildCorpus(t, "alpha beta", "alpha gamma", "beta gamma")
	cache, err := fuzzy.NewCache(100)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	cold := NewAggregator(inv, dict, nil)
	warm := NewAggregator(inv, dict, cache)

	queries := []string{"alpha beta", "alpha", "beta gamm", "alpha beta"}
	for _, q := range queries {
		want := cold.FindMatches(q)
		first := warm.FindMatches(q)
		second := warm.FindMatches(q) // cache now hot for every token
		if len(first) != len(want) || len(second) != len(want) {
			t.Fatalf("query %q: cached sizes %d/%d, want %d", q, len(first), len(second), len(want))
		}
		for id, cand := range want {
			if first[id] != cand || second[id] != cand {
				t.Errorf("query %q doc %d: cold %+v, warm %+v/%+v", q, id, cand, first[id], second[id])
			}
		}
	}
}
