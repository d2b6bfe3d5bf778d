// Package index holds the memory-resident document store and inverted index
// together with the text normalisation they are built from.
package index

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Token is a single normalised term and its 0-based position in the text.
type Token struct {
	Term     string
	Position uint32
}

// stripped characters are deleted outright, without inserting a separator,
// so "don't" becomes "dont" rather than "don t".
const stripped = "':.,*+?${}()|"

// Normalize transliterates text to its closest ASCII form, lowercases it,
// deletes the fixed punctuation set, and splits on whitespace, yielding
// tokens in left-to-right order. The same pipeline runs at index time and at
// query time, and it is idempotent: normalising already-normalised text is a
// no-op.
func Normalize(text string) []Token {
	words := strings.Fields(NormalizeString(text))
	tokens := make([]Token, 0, len(words))
	for pos, word := range words {
		tokens = append(tokens, Token{Term: word, Position: uint32(pos)})
	}
	return tokens
}

// NormalizeString applies the character pipeline (transliterate, lowercase,
// strip) without tokenising. Whitespace runs are left for the caller.
func NormalizeString(text string) string {
	text = unidecode.Unidecode(text)
	text = strings.ToLower(text)
	if !strings.ContainsAny(text, stripped) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(stripped, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeWord normalises a single word the way documents are indexed. Used
// by the ranker to map raw document words onto indexed terms.
func NormalizeWord(word string) string {
	return NormalizeString(word)
}
