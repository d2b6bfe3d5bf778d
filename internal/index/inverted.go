package index

import (
	"sort"
	"sync"

	apperrors "github.com/devashish-g/titleseek/pkg/errors"
)

// Posting records one occurrence of a term: the document it appears in and
// its token position within that document.
type Posting struct {
	DocID    uint32 `json:"d"`
	Position uint32 `json:"p"`
}

// Term is the per-term record of the inverted index. Postings are kept in
// insertion order and may contain several entries for the same document when
// the term occurs more than once in it; the ranker depends on that.
type Term struct {
	ID         uint32
	Popularity uint32
	Postings   []Posting
}

// Inverted maps normalised terms to their Term records. Term ids come from a
// counter owned by the index and are unique for the process lifetime.
type Inverted struct {
	mu     sync.RWMutex
	terms  map[string]*Term
	nextID uint32
}

// NewInverted creates an empty inverted index.
func NewInverted() *Inverted {
	return &Inverted{terms: make(map[string]*Term)}
}

// IndexDocument appends one posting per token, creating the Term on first
// sight of a token and bumping its popularity on every occurrence.
func (inv *Inverted) IndexDocument(docID uint32, tokens []Token) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, tok := range tokens {
		t, ok := inv.terms[tok.Term]
		if !ok {
			t = &Term{ID: inv.nextID}
			inv.nextID++
			inv.terms[tok.Term] = t
		}
		t.Postings = append(t.Postings, Posting{DocID: docID, Position: tok.Position})
		t.Popularity++
	}
}

// Lookup returns the Term record for term, or ErrTermNotFound if the term
// was never indexed.
func (inv *Inverted) Lookup(term string) (*Term, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	t, ok := inv.terms[term]
	if !ok {
		return nil, apperrors.ErrTermNotFound
	}
	return t, nil
}

// Terms returns all distinct indexed terms in lexicographic order. The fuzzy
// dictionary is built from this once ingestion completes.
func (inv *Inverted) Terms() []string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	terms := make([]string, 0, len(inv.terms))
	for term := range inv.terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Len returns the number of distinct terms.
func (inv *Inverted) Len() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.terms)
}

// restore replaces the index contents wholesale. Only the snapshot loader
// uses it, before serving begins.
func (inv *Inverted) restore(terms map[string]*Term, nextID uint32) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.terms = terms
	inv.nextID = nextID
}

// snapshot returns a deep copy of the term map and the next term id.
func (inv *Inverted) snapshot() (map[string]*Term, uint32) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	terms := make(map[string]*Term, len(inv.terms))
	for term, t := range inv.terms {
		cp := &Term{
			ID:         t.ID,
			Popularity: t.Popularity,
			Postings:   make([]Posting, len(t.Postings)),
		}
		copy(cp.Postings, t.Postings)
		terms[term] = cp
	}
	return terms, inv.nextID
}
