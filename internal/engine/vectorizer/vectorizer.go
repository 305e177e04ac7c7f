// Package vectorizer converts a document's terms and genre tags into a
// sparse, L2-normalised feature vector over a shared vocabulary.
package vectorizer

import (
	"math"

	"github.com/mediasearch/similarity-service/internal/engine/vocab"
)

// DefaultGenreWeight is the raw weight added for each matching genre
// dimension before normalisation.
const DefaultGenreWeight = 1.2

// Options controls vectorisation.
type Options struct {
	// GenreWeight is the fixed weight per genre dimension. The zero value
	// falls back to DefaultGenreWeight; negative values disable genre
	// dimensions entirely.
	GenreWeight float64
}

func (o Options) genreWeight() float64 {
	if o.GenreWeight == 0 {
		return DefaultGenreWeight
	}
	if o.GenreWeight < 0 {
		return 0
	}
	return o.GenreWeight
}

// Vector is a sparse mapping from dimension index to weight. Stored corpus
// vectors are always normalised; the zero-valued (empty) map doubles as the
// zero vector.
type Vector map[int]float64

// Vectorize builds the feature vector for one document: log-scaled term
// frequency times idf on the lexical dimensions, a fixed weight on each
// genre dimension, then L2 normalisation. Terms absent from the vocabulary
// (possible for query text) are silently dropped, so queries can never
// introduce new dimensions.
func Vectorize(terms []string, genres []string, voc *vocab.Vocabulary, opts Options) Vector {
	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		counts[term]++
	}

	vec := make(Vector, len(counts)+len(genres))
	for term, count := range counts {
		i, ok := voc.TermIndex(term)
		if !ok {
			continue
		}
		vec[i] = (1 + math.Log(float64(count))) * voc.IDF(i)
	}
	if w := opts.genreWeight(); w > 0 {
		for _, genre := range genres {
			if i, ok := voc.GenreIndex(genre); ok {
				vec[i] = w
			}
		}
	}
	vec.normalize()
	return vec
}

// normalize scales the vector to unit Euclidean norm. The zero vector is
// left untouched; it scores zero against everything.
func (v Vector) normalize() {
	norm := v.Norm()
	if norm == 0 {
		return
	}
	for i, w := range v {
		v[i] = w / norm
	}
}

// Norm returns the Euclidean norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of two sparse vectors, iterating over the
// smaller one. For pre-normalised vectors this is the cosine similarity.
func (v Vector) Dot(other Vector) float64 {
	a, b := v, other
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for i, w := range a {
		if ow, ok := b[i]; ok {
			sum += w * ow
		}
	}
	return sum
}
