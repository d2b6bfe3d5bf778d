package fuzzy

import (
	"testing"
)

func newTestDictionary(t *testing.T, terms ...string) *Dictionary {
	t.Helper()
	d, err := NewDictionary(terms)
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}
	return d
}

func TestFuzzyMatchExact(t *testing.T) {
	d := newTestDictionary(t, "apple", "apply", "banana", "orange")

	matches := d.FuzzyMatch("apple", 0)
	if len(matches) != 1 || matches[0].Term != "apple" || matches[0].Distance != 0 {
		t.Fatalf("FuzzyMatch(apple, 0) = %v, want [{apple 0}]", matches)
	}
}

func TestFuzzyMatchWithinBudget(t *testing.T) {
	d := newTestDictionary(t, "apple", "apply", "banana", "orange")

	matches := d.FuzzyMatch("appla", 1)
	got := make(map[string]int, len(matches))
	for _, m := range matches {
		got[m.Term] = m.Distance
	}
	if dist, ok := got["apple"]; !ok || dist != 1 {
		t.Errorf("expected apple at distance 1, got %v", matches)
	}
	if dist, ok := got["apply"]; !ok || dist != 1 {
		t.Errorf("expected apply at distance 1, got %v", matches)
	}
	if _, ok := got["banana"]; ok {
		t.Errorf("banana should not match appla at distance 1")
	}
}

func TestFuzzyMatchRecomputesExactDistance(t *testing.T) {
	d := newTestDictionary(t, "lord")
	matches := d.FuzzyMatch("lodr", 2)
	if len(matches) != 1 {
		t.Fatalf("FuzzyMatch(lodr, 2) = %v, want one match", matches)
	}
	// The automaton only guarantees <= 2; the stored distance must be the
	// exact value.
	if matches[0].Distance != 2 {
		t.Fatalf("distance = %d, want 2", matches[0].Distance)
	}
}

func TestFuzzyMatchNoMatch(t *testing.T) {
	d := newTestDictionary(t, "apple", "banana")
	if matches := d.FuzzyMatch("zzz", 1); len(matches) != 0 {
		t.Fatalf("FuzzyMatch(zzz, 1) = %v, want empty", matches)
	}
	if matches := d.FuzzyMatch("", 2); len(matches) != 0 {
		t.Fatalf("FuzzyMatch of empty term = %v, want empty", matches)
	}
}

func TestErrorBudget(t *testing.T) {
	cases := []struct {
		token  string
		isLast bool
		want   int
	}{
		{"word", false, 1},
		{"words", false, 2},
		{"ab", false, 1},
		{"a", true, 1},
		{"the", true, 2},
		{"lords", true, 3},
		{"revolution", true, 3},
	}
	for _, c := range cases {
		if got := ErrorBudget(c.token, c.isLast); got != c.want {
			t.Errorf("ErrorBudget(%q, %v) = %d, want %d", c.token, c.isLast, got, c.want)
		}
	}
}

func TestDictionaryLen(t *testing.T) {
	d := newTestDictionary(t, "b", "a", "b", "c")
	if d.Len() != 3 {
		t.Fatalf("Len = %d, want 3 (duplicates collapsed)", d.Len())
	}
}
