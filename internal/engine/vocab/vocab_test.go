package vocab

import (
	"math"
	"testing"
)

func TestBuildAssignsSortedIndices(t *testing.T) {
	docs := [][]string{
		{"war", "space"},
		{"love", "space"},
	}
	v := Build(docs, nil)

	if v.NumTerms() != 3 {
		t.Fatalf("NumTerms = %d, want 3", v.NumTerms())
	}
	// Lexicographic: love < space < war.
	for i, term := range []string{"love", "space", "war"} {
		idx, ok := v.TermIndex(term)
		if !ok {
			t.Fatalf("term %q missing from vocabulary", term)
		}
		if idx != i {
			t.Errorf("TermIndex(%q) = %d, want %d", term, idx, i)
		}
	}
}

func TestIDFFormula(t *testing.T) {
	// N=3; "space" in 2 docs, "paris" in 1.
	docs := [][]string{
		{"space", "war"},
		{"space"},
		{"paris"},
	}
	v := Build(docs, nil)

	checks := []struct {
		term string
		df   int
	}{
		{"space", 2},
		{"war", 1},
		{"paris", 1},
	}
	for _, c := range checks {
		idx, ok := v.TermIndex(c.term)
		if !ok {
			t.Fatalf("term %q missing", c.term)
		}
		want := math.Log(3.0/float64(1+c.df)) + 1
		if got := v.IDF(idx); math.Abs(got-want) > 1e-12 {
			t.Errorf("IDF(%q) = %v, want %v", c.term, got, want)
		}
	}
}

func TestDocumentFrequencyCountsDistinctTerms(t *testing.T) {
	// "space" repeated within one document must count once.
	docs := [][]string{
		{"space", "space", "space"},
		{"war"},
	}
	v := Build(docs, nil)
	idx, _ := v.TermIndex("space")
	want := math.Log(2.0/2.0) + 1 // df=1, N=2
	if got := v.IDF(idx); math.Abs(got-want) > 1e-12 {
		t.Errorf("IDF(space) = %v, want %v (df must be 1)", got, want)
	}
}

func TestGenreNamespaceDisjoint(t *testing.T) {
	docs := [][]string{{"action", "space"}}
	genres := [][]string{{"Action", "SciFi"}}
	v := Build(docs, genres)

	if v.NumGenres() != 2 {
		t.Fatalf("NumGenres = %d, want 2", v.NumGenres())
	}
	if v.NumDims() != v.NumTerms()+v.NumGenres() {
		t.Errorf("NumDims = %d, want %d", v.NumDims(), v.NumTerms()+v.NumGenres())
	}
	termIdx, _ := v.TermIndex("action")
	genreIdx, ok := v.GenreIndex("Action")
	if !ok {
		t.Fatal("genre Action missing")
	}
	if genreIdx == termIdx {
		t.Error("genre dimension collides with lexical dimension")
	}
	if genreIdx < v.NumTerms() {
		t.Errorf("genre index %d inside lexical range [0,%d)", genreIdx, v.NumTerms())
	}
}

func TestGenreIndicesSorted(t *testing.T) {
	v := Build(nil, [][]string{{"Western", "Action", "Romance"}})
	prev := -1
	for _, g := range []string{"Action", "Romance", "Western"} {
		idx, ok := v.GenreIndex(g)
		if !ok {
			t.Fatalf("genre %q missing", g)
		}
		if idx <= prev {
			t.Errorf("genre %q index %d not ascending after %d", g, idx, prev)
		}
		prev = idx
	}
}

func TestEmptyCorpus(t *testing.T) {
	v := Build(nil, nil)
	if v.NumDims() != 0 {
		t.Errorf("empty corpus NumDims = %d, want 0", v.NumDims())
	}
	if _, ok := v.TermIndex("anything"); ok {
		t.Error("empty vocabulary should not resolve terms")
	}
}
