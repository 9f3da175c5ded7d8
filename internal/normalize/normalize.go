// Package normalize turns raw document or query text into the sequence of
// terms the rest of the pipeline indexes and scores on. The same Normalizer
// must be used at index time and at query time: any divergence between the
// two makes term lookups silently miss.
package normalize

import (
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

// minTermLength is the shortest token kept after tokenization; anything
// shorter is dropped before it ever reaches the stopword filter or stemmer.
const minTermLength = 2

// Normalizer tokenizes, lowercases, filters, and stems text. It holds no
// mutable state after construction and is safe for concurrent use.
type Normalizer struct {
	stopwords map[string]struct{}
}

// New creates a Normalizer backed by the given stopword set. A nil or empty
// set disables stopword filtering entirely; it does not disable the rest of
// the pipeline.
func New(stopwords map[string]struct{}) *Normalizer {
	return &Normalizer{stopwords: stopwords}
}

// Line splits one line of text into its surviving, stemmed terms:
// tokenize on runs of non-alphanumeric ASCII, lowercase, drop tokens
// shorter than two characters, drop stopwords, then Porter-stem.
//
// Line never fails; an input with no surviving terms returns an empty,
// non-nil slice.
func (n *Normalizer) Line(raw string) []string {
	terms := make([]string, 0, len(raw)/5+1)
	for _, tok := range tokenize(raw) {
		tok = strings.ToLower(tok)
		if len(tok) < minTermLength {
			continue
		}
		if n.isStopword(tok) {
			continue
		}
		terms = append(terms, porterstemmer.StemString(tok))
	}
	return terms
}

// Text normalizes a full document by normalizing each line in turn and
// concatenating the surviving terms in order.
func (n *Normalizer) Text(raw string) []string {
	var terms []string
	for _, line := range strings.Split(raw, "\n") {
		terms = append(terms, n.Line(line)...)
	}
	return terms
}

func (n *Normalizer) isStopword(term string) bool {
	if len(n.stopwords) == 0 {
		return false
	}
	_, ok := n.stopwords[term]
	return ok
}

// tokenize splits on any run of characters outside ASCII [a-zA-Z0-9],
// dropping empty tokens the way strings.FieldsFunc naturally does.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !isAlphaNumericASCII(r)
	})
}

func isAlphaNumericASCII(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
