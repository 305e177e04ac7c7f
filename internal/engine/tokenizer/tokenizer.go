// Package tokenizer normalises raw text into terms for the similarity
// engine. It lower-cases input and splits on runs of non-alphanumeric
// characters; the filtered variant additionally drops stop words.
//
// Tokenisation is deliberately shallow: no stemming, no synonym folding.
// The engine is a lexical ranker, not a linguistic one.
package tokenizer

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Tokenize lower-cases text and splits it on runs of non-alphanumeric
// characters, dropping empty tokens. Deterministic and side-effect free;
// empty input yields an empty slice.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TokenizeFiltered tokenizes text and removes stop words.
func TokenizeFiltered(text string) []string {
	words := Tokenize(text)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

// IsStopWord reports whether the given lower-cased token is in the fixed
// stop-word set.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}
