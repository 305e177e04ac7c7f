package vectorizer

import (
	"math"
	"testing"

	"github.com/mediasearch/similarity-service/internal/engine/vocab"
)

func buildVocab(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	docs := [][]string{
		{"space", "war", "war"},
		{"love", "space"},
	}
	genres := [][]string{{"SciFi"}, {"Romance"}}
	return vocab.Build(docs, genres)
}

func TestVectorizeWeights(t *testing.T) {
	voc := buildVocab(t)

	// Unnormalised weights are hard to observe directly; check ratios,
	// which survive normalisation.
	vec := Vectorize([]string{"war", "war", "space"}, nil, voc, Options{})

	warIdx, _ := voc.TermIndex("war")
	spaceIdx, _ := voc.TermIndex("space")

	warIDF := voc.IDF(warIdx)
	spaceIDF := voc.IDF(spaceIdx)
	wantRatio := ((1 + math.Log(2)) * warIDF) / ((1 + math.Log(1)) * spaceIDF)
	gotRatio := vec[warIdx] / vec[spaceIdx]
	if math.Abs(gotRatio-wantRatio) > 1e-9 {
		t.Errorf("war/space weight ratio = %v, want %v", gotRatio, wantRatio)
	}
}

func TestVectorizeNormalized(t *testing.T) {
	voc := buildVocab(t)
	vec := Vectorize([]string{"space", "war", "love"}, []string{"SciFi"}, voc, Options{})
	if norm := vec.Norm(); math.Abs(norm-1) > 1e-9 {
		t.Errorf("norm = %v, want 1", norm)
	}
}

func TestVectorizeDropsOutOfVocabulary(t *testing.T) {
	voc := buildVocab(t)
	vec := Vectorize([]string{"space", "battle", "laser"}, nil, voc, Options{})

	spaceIdx, _ := voc.TermIndex("space")
	if len(vec) != 1 {
		t.Fatalf("expected only the in-vocabulary dimension, got %d entries", len(vec))
	}
	if math.Abs(vec[spaceIdx]-1) > 1e-9 {
		t.Errorf("single-term vector should normalize to 1, got %v", vec[spaceIdx])
	}
}

func TestVectorizeZeroVector(t *testing.T) {
	voc := buildVocab(t)
	vec := Vectorize([]string{"unknown", "terms"}, []string{"Documentary"}, voc, Options{})
	if len(vec) != 0 {
		t.Errorf("expected zero vector, got %v", vec)
	}
	if vec.Norm() != 0 {
		t.Errorf("zero vector norm = %v", vec.Norm())
	}
}

func TestGenreWeightOption(t *testing.T) {
	voc := buildVocab(t)
	genreIdx, _ := voc.GenreIndex("SciFi")
	spaceIdx, _ := voc.TermIndex("space")

	vec := Vectorize([]string{"space"}, []string{"SciFi"}, voc, Options{GenreWeight: 2.4})

	spaceIDF := voc.IDF(spaceIdx)
	wantRatio := 2.4 / spaceIDF
	gotRatio := vec[genreIdx] / vec[spaceIdx]
	if math.Abs(gotRatio-wantRatio) > 1e-9 {
		t.Errorf("genre/space ratio = %v, want %v", gotRatio, wantRatio)
	}
}

func TestGenreWeightDefault(t *testing.T) {
	voc := buildVocab(t)
	genreIdx, _ := voc.GenreIndex("SciFi")
	spaceIdx, _ := voc.TermIndex("space")

	vec := Vectorize([]string{"space"}, []string{"SciFi"}, voc, Options{})
	wantRatio := DefaultGenreWeight / voc.IDF(spaceIdx)
	gotRatio := vec[genreIdx] / vec[spaceIdx]
	if math.Abs(gotRatio-wantRatio) > 1e-9 {
		t.Errorf("default genre weight ratio = %v, want %v", gotRatio, wantRatio)
	}
}

func TestGenreWeightDisabled(t *testing.T) {
	voc := buildVocab(t)
	vec := Vectorize(nil, []string{"SciFi"}, voc, Options{GenreWeight: -1})
	if len(vec) != 0 {
		t.Errorf("negative genre weight should disable genre dimensions, got %v", vec)
	}
}

func TestDot(t *testing.T) {
	a := Vector{0: 0.6, 1: 0.8}
	b := Vector{1: 1.0}
	if got := a.Dot(b); math.Abs(got-0.8) > 1e-12 {
		t.Errorf("Dot = %v, want 0.8", got)
	}
	if got := b.Dot(a); math.Abs(got-0.8) > 1e-12 {
		t.Errorf("Dot not symmetric: %v", got)
	}
	if got := a.Dot(Vector{}); got != 0 {
		t.Errorf("dot with zero vector = %v, want 0", got)
	}
}
