package search

import (
	"strings"
	"testing"

	"github.com/devashish-g/titleseek/internal/index"
)

func TestRankPhraseAlignmentBeatsScattered(t *testing.T) {
	store := index.NewStore()
	phrase := store.Add("the lord of the rings")    // positions 0..3 align exactly
	scattered := store.Add("of the rings the lord") // same words, shuffled
	r := NewRanker(store, 10, 0)

	candidates := map[uint32]Candidate{
		phrase:    {ExactMatches: 4, TotalEdits: 0},
		scattered: {ExactMatches: 4, TotalEdits: 0},
	}
	results := r.Rank("the lord of the", candidates)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != "the lord of the rings" {
		t.Fatalf("phrase match must rank first, got %q", results[0].Text)
	}
}

func TestRankPerfectAlignmentDistanceZero(t *testing.T) {
	store := index.NewStore()
	store.Add("the lord of the rings")
	r := NewRanker(store, 10, 0)

	queryTokens := strings.Fields("the lord of the")
	queryPos := map[string][]int{"the": {0, 3}, "lord": {1}, "of": {2}}
	queryOrder := []string{"the", "lord", "of"}

	distance, _ := r.scoreDocument(queryTokens, queryPos, queryOrder, "the lord of the rings")
	if distance != 0 {
		t.Fatalf("alignment distance = %v, want 0", distance)
	}
}

func TestRankExactMatchCountPrimary(t *testing.T) {
	store := index.NewStore()
	// The better-aligned document has fewer exact matches; exact count
	// must still win.
	worse := store.Add("alpha beta")
	better := store.Add("gamma delta alpha beta")
	r := NewRanker(store, 10, 0)

	candidates := map[uint32]Candidate{
		worse:  {ExactMatches: 1, TotalEdits: 1},
		better: {ExactMatches: 2, TotalEdits: 0},
	}
	results := r.Rank("alpha beta", candidates)
	if results[0].Text != "gamma delta alpha beta" {
		t.Fatalf("higher exact-match count must rank first, got %q", results[0].Text)
	}
}

func TestRankTopNBound(t *testing.T) {
	store := index.NewStore()
	candidates := make(map[uint32]Candidate)
	for i := 0; i < 50; i++ {
		id := store.Add("alpha beta gamma")
		candidates[id] = Candidate{ExactMatches: 1}
	}
	r := NewRanker(store, 10, 0)

	results := r.Rank("alpha", candidates)
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
}

func TestRankNoAlignmentSortsLast(t *testing.T) {
	store := index.NewStore()
	aligned := store.Add("alpha beta")
	unrelated := store.Add("delta epsilon") // candidate via fuzzy variants only
	r := NewRanker(store, 10, 0)

	candidates := map[uint32]Candidate{
		aligned:   {ExactMatches: 1},
		unrelated: {ExactMatches: 1},
	}
	results := r.Rank("alpha", candidates)
	if results[0].Text != "alpha beta" {
		t.Fatalf("document with an alignment must outrank one without, got %q first", results[0].Text)
	}
	if results[1].Highlighted != "delta epsilon" {
		t.Fatalf("unaligned document renders plain, got %q", results[1].Highlighted)
	}
}

func TestRankHighlighting(t *testing.T) {
	store := index.NewStore()
	store.Add("The Lord of the Rings")
	r := NewRanker(store, 10, 0)

	results := r.Rank("lord", map[uint32]Candidate{0: {ExactMatches: 1}})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	want := "The <b>Lord</b> of the Rings"
	if results[0].Highlighted != want {
		t.Fatalf("highlighted = %q, want %q", results[0].Highlighted, want)
	}
	if results[0].Text != "The Lord of the Rings" {
		t.Fatalf("original text must be preserved, got %q", results[0].Text)
	}
}

func TestRankRepeatedQueryWordWindows(t *testing.T) {
	store := index.NewStore()
	store.Add("the lord ring of the")
	r := NewRanker(store, 10, 0)

	queryTokens := strings.Fields("the lord of the")
	queryPos := map[string][]int{"the": {0, 3}, "lord": {1}, "of": {2}}
	queryOrder := []string{"the", "lord", "of"}

	// Both "the" occurrences (positions 0 and 4) are taken as one window;
	// with lord@1 and of@3 the best sorted combination is [0,1,3,4].
	distance, _ := r.scoreDocument(queryTokens, queryPos, queryOrder, "the lord ring of the")
	want := float64(0 + 0 + 1 + 1)
	if distance != want {
		t.Fatalf("distance = %v, want %v", distance, want)
	}
}

func TestDiffWordSharedAndDocOnly(t *testing.T) {
	got := diffWord("lor", "lord")
	want := "<b>lor</b>" + lightOpen + "d" + lightClose
	if got != want {
		t.Fatalf("diffWord = %q, want %q", got, want)
	}
}

func TestDiffWordCaseInsensitive(t *testing.T) {
	got := diffWord("lord", "Lord")
	if got != "<b>Lord</b>" {
		t.Fatalf("diffWord = %q, want %q", got, "<b>Lord</b>")
	}
}

func TestDiffWordConcatenationPreservesWord(t *testing.T) {
	cases := [][2]string{
		{"lodr", "lord"},
		{"matrix", "Matrix"},
		{"rign", "Rings"},
		{"x", "somethingelse"},
	}
	for _, c := range cases {
		got := diffWord(c[0], c[1])
		stripped := strings.NewReplacer(
			boldOpen, "", boldClose, "",
			lightOpen, "", lightClose, "",
		).Replace(got)
		if stripped != c[1] {
			t.Errorf("diffWord(%q, %q) = %q; concatenated segments %q != %q", c[0], c[1], got, stripped, c[1])
		}
	}
}
