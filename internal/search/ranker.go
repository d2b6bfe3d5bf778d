package search

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/devashish-g/titleseek/internal/index"
)

// Markup wrapped around highlighted characters. Characters the query and the
// document word share are emphasised; characters only the document word has
// are rendered light.
const (
	boldOpen   = "<b>"
	boldClose  = "</b>"
	lightOpen  = `<span class="light">`
	lightClose = "</span>"
)

// DefaultTopN bounds the ranked result list.
const DefaultTopN = 10

// DefaultMaxCombinations caps the alignment search per document. Titles are
// short, so the cap only bites on adversarial inputs with many repeated
// words.
const DefaultMaxCombinations = 5000

// Result pairs a candidate's original text with its highlighted rendering.
type Result struct {
	Text        string `json:"text"`
	Highlighted string `json:"highlighted"`
}

// Ranker scores candidate documents by how closely their matched word
// positions resemble the query's word order, and renders the winning
// alignment as highlighted text.
type Ranker struct {
	store           *index.Store
	topN            int
	maxCombinations int
	logger          *slog.Logger
}

// NewRanker creates a Ranker over the given document store.
func NewRanker(store *index.Store, topN, maxCombinations int) *Ranker {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if maxCombinations <= 0 {
		maxCombinations = DefaultMaxCombinations
	}
	return &Ranker{
		store:           store,
		topN:            topN,
		maxCombinations: maxCombinations,
		logger:          slog.Default().With("component", "ranker"),
	}
}

type scoredRecord struct {
	docID       uint32
	text        string
	highlighted string
	exact       int
	similarity  float64
}

// Rank orders the candidates best-first and returns at most topN results.
// The primary key is the exact-match count (descending); ties break on the
// proximity distance of each document's best alignment (ascending).
func (r *Ranker) Rank(query string, candidates map[uint32]Candidate) []Result {
	queryTokens := strings.Fields(query)
	queryPos := make(map[string][]int)
	queryOrder := make([]string, 0, len(queryTokens))
	for idx, w := range queryTokens {
		if _, seen := queryPos[w]; !seen {
			queryOrder = append(queryOrder, w)
		}
		queryPos[w] = append(queryPos[w], idx)
	}

	records := make([]scoredRecord, 0, len(candidates))
	for docID, cand := range candidates {
		text, err := r.store.Get(docID)
		if err != nil {
			// Every posting must reference a live document; reaching this
			// branch means the index and store disagree.
			r.logger.Warn("candidate document missing from store", "doc_id", docID)
			continue
		}
		similarity, highlighted := r.scoreDocument(queryTokens, queryPos, queryOrder, text)
		records = append(records, scoredRecord{
			docID:       docID,
			text:        text,
			highlighted: highlighted,
			exact:       cand.ExactMatches,
			similarity:  similarity,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].exact != records[j].exact {
			return records[i].exact > records[j].exact
		}
		if records[i].similarity != records[j].similarity {
			return records[i].similarity < records[j].similarity
		}
		return records[i].docID < records[j].docID
	})
	if len(records) > r.topN {
		records = records[:r.topN]
	}

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		results = append(results, Result{Text: rec.text, Highlighted: rec.highlighted})
	}
	return results
}

// scoreDocument finds the best alignment of the query words onto the
// document's word positions and renders its highlight. A document with no
// aligned words scores the worst possible distance and renders plain.
func (r *Ranker) scoreDocument(queryTokens []string, queryPos map[string][]int, queryOrder []string, text string) (float64, string) {
	rawWords := strings.Fields(text)
	docPos := make(map[string][]int, len(rawWords))
	for j, w := range rawWords {
		key := index.NormalizeWord(w)
		docPos[key] = append(docPos[key], j)
	}

	type alignEntry struct {
		word      string
		positions []int
	}
	entries := make([]alignEntry, 0, len(queryOrder))
	for _, w := range queryOrder {
		if ps, ok := docPos[w]; ok {
			entries = append(entries, alignEntry{word: w, positions: ps})
		}
	}
	if len(entries) == 0 {
		return math.MaxFloat64, strings.Join(rawWords, " ")
	}

	// Backtracking over every way to place each query word's repeated
	// occurrences into a contiguous window of the document's occurrence
	// positions for that word.
	best := math.MaxFloat64
	var bestCombo []int
	combos := 0
	current := make([]int, 0, len(queryTokens))

	var walk func(i int)
	walk = func(i int) {
		if combos >= r.maxCombinations {
			return
		}
		if i == len(entries) {
			combos++
			combo := make([]int, len(current))
			copy(combo, current)
			sort.Ints(combo)
			if d := proximityDistance(combo); d < best {
				best = d
				bestCombo = combo
			}
			return
		}
		e := entries[i]
		step := len(queryPos[e.word])
		if len(e.positions) < step {
			step = len(e.positions)
		}
		for start := 0; start+step <= len(e.positions); start++ {
			current = append(current, e.positions[start:start+step]...)
			walk(i + 1)
			current = current[:len(current)-step]
		}
	}
	walk(0)

	if bestCombo == nil {
		return math.MaxFloat64, strings.Join(rawWords, " ")
	}
	return best, r.highlight(queryTokens, rawWords, bestCombo)
}

// proximityDistance measures how far a sorted alignment is from a
// contiguous, in-order phrase starting at the head of the document: the
// positions are zipped against 0,1,2,… and the squared offsets summed, so
// scattered or out-of-order occurrences pay quadratically.
func proximityDistance(sorted []int) float64 {
	sum := 0
	for i, pos := range sorted {
		d := pos - i
		sum += d * d
	}
	return float64(sum)
}

// highlight renders the document with the winning alignment marked up: the
// i-th aligned document word is diffed character-by-character against the
// i-th query token, and all words are rejoined with single spaces.
func (r *Ranker) highlight(queryTokens []string, rawWords []string, combo []int) string {
	assigned := make(map[int]int, len(combo))
	for i, pos := range combo {
		if i < len(queryTokens) && pos < len(rawWords) {
			assigned[pos] = i
		}
	}
	parts := make([]string, len(rawWords))
	for j, w := range rawWords {
		if qi, ok := assigned[j]; ok {
			parts[j] = diffWord(queryTokens[qi], w)
		} else {
			parts[j] = w
		}
	}
	return strings.Join(parts, " ")
}

type diffClass int

const (
	classBold diffClass = iota
	classLight
)

type diffSegment struct {
	class diffClass
	runes []rune
}

// diffWord renders the document word with the characters it shares with the
// query word in bold and the rest light. Comparison is case-insensitive;
// the document word's original characters are what gets emitted, so
// concatenating the segments reproduces the document word.
func diffWord(queryWord, docWord string) string {
	q := []rune(strings.ToLower(queryWord))
	dOrig := []rune(docWord)
	d := []rune(strings.ToLower(docWord))
	m, n := len(q), len(d)

	// Standard edit-distance table, then a traceback classifying each
	// document character as shared (match or substitution pairs it with a
	// query character) or document-only (insertion).
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
		dp[i][0] = i
	}
	for j := 0; j <= n; j++ {
		dp[0][j] = j
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 1
			if q[i-1] == d[j-1] {
				cost = 0
			}
			v := dp[i-1][j-1] + cost
			if del := dp[i-1][j] + 1; del < v {
				v = del
			}
			if ins := dp[i][j-1] + 1; ins < v {
				v = ins
			}
			dp[i][j] = v
		}
	}

	var rev []diffSegment
	emit := func(class diffClass, r rune) {
		if len(rev) > 0 && rev[len(rev)-1].class == class {
			rev[len(rev)-1].runes = append(rev[len(rev)-1].runes, r)
			return
		}
		rev = append(rev, diffSegment{class: class, runes: []rune{r}})
	}
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && q[i-1] == d[j-1] && dp[i][j] == dp[i-1][j-1]:
			emit(classBold, dOrig[j-1])
			i--
			j--
		case i > 0 && j > 0 && dp[i][j] == dp[i-1][j-1]+1:
			emit(classBold, dOrig[j-1])
			i--
			j--
		case j > 0 && dp[i][j] == dp[i][j-1]+1:
			emit(classLight, dOrig[j-1])
			j--
		default:
			// Query-only character with no document character to pair
			// with; nothing to render.
			i--
		}
	}

	var b strings.Builder
	for k := len(rev) - 1; k >= 0; k-- {
		seg := rev[k]
		// Segments were accumulated back-to-front.
		for l, r := 0, len(seg.runes)-1; l < r; l, r = l+1, r-1 {
			seg.runes[l], seg.runes[r] = seg.runes[r], seg.runes[l]
		}
		switch seg.class {
		case classBold:
			b.WriteString(boldOpen)
			b.WriteString(string(seg.runes))
			b.WriteString(boldClose)
		case classLight:
			b.WriteString(lightOpen)
			b.WriteString(string(seg.runes))
			b.WriteString(lightClose)
		}
	}
	return b.String()
}
