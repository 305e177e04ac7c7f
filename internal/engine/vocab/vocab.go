// Package vocab builds the term vocabulary and inverse-document-frequency
// table for one corpus snapshot. Lexical terms occupy dimensions
// [0, NumTerms) and genre tags a disjoint range [NumTerms, NumDims), so a
// tag "Action" never collides with the word "action" appearing in prose.
package vocab

import (
	"math"
	"sort"
)

// Vocabulary is a bijection between terms (and genres) and dense dimension
// indices, plus the idf weight per lexical term. It is immutable once built
// and shared by every vector of one index generation.
type Vocabulary struct {
	terms  map[string]int
	genres map[string]int
	idf    []float64
}

// Build scans the tokenized form of every document plus its genre set and
// produces the vocabulary for this corpus snapshot.
//
// Dimension assignment sorts terms (and genres) lexicographically so two
// builds over identical input yield identical indices. Document frequency
// counts each document once per distinct term; idf is the smoothed
// ln(N/(1+df)) + 1.
func Build(docTerms [][]string, docGenres [][]string) *Vocabulary {
	n := len(docTerms)
	df := make(map[string]int)
	for _, terms := range docTerms {
		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	sorted := make([]string, 0, len(df))
	for term := range df {
		sorted = append(sorted, term)
	}
	sort.Strings(sorted)

	v := &Vocabulary{
		terms:  make(map[string]int, len(sorted)),
		genres: make(map[string]int),
		idf:    make([]float64, len(sorted)),
	}
	for i, term := range sorted {
		v.terms[term] = i
		v.idf[i] = math.Log(float64(n)/float64(1+df[term])) + 1
	}

	genreSet := make(map[string]struct{})
	for _, genres := range docGenres {
		for _, g := range genres {
			genreSet[g] = struct{}{}
		}
	}
	sortedGenres := make([]string, 0, len(genreSet))
	for g := range genreSet {
		sortedGenres = append(sortedGenres, g)
	}
	sort.Strings(sortedGenres)
	for i, g := range sortedGenres {
		v.genres[g] = len(sorted) + i
	}
	return v
}

// TermIndex returns the dimension index for a lexical term.
func (v *Vocabulary) TermIndex(term string) (int, bool) {
	i, ok := v.terms[term]
	return i, ok
}

// GenreIndex returns the dimension index for a genre tag.
func (v *Vocabulary) GenreIndex(genre string) (int, bool) {
	i, ok := v.genres[genre]
	return i, ok
}

// IDF returns the inverse-document-frequency weight for a lexical dimension.
func (v *Vocabulary) IDF(termIndex int) float64 {
	return v.idf[termIndex]
}

// NumTerms returns the number of distinct lexical terms.
func (v *Vocabulary) NumTerms() int {
	return len(v.terms)
}

// NumGenres returns the number of distinct genre tags.
func (v *Vocabulary) NumGenres() int {
	return len(v.genres)
}

// NumDims returns the total vector dimensionality.
func (v *Vocabulary) NumDims() int {
	return len(v.terms) + len(v.genres)
}
