package engine

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/mediasearch/similarity-service/internal/engine/vectorizer"
	apperrors "github.com/mediasearch/similarity-service/pkg/errors"
)

func sampleCorpus() []Document {
	return []Document{
		{ID: 1, Title: "Space War", Description: "a war in space", Genres: []string{"SciFi"}},
		{ID: 2, Title: "Love Story", Description: "a romance in paris", Genres: []string{"Romance"}},
		{ID: 3, Title: "Space Romance", Description: "love and war in space", Genres: []string{"SciFi", "Romance"}},
	}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(vectorizer.Options{})
	e.Rebuild(sampleCorpus())
	return e
}

func TestSimilarToRecordScenario(t *testing.T) {
	e := newEngine(t)

	results, err := e.SimilarToRecord(1, 2)
	if err != nil {
		t.Fatalf("SimilarToRecord: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	// Record 3 shares "space"/"war" and the SciFi tag with record 1 and
	// must outrank record 2, which shares nothing.
	if results[0].RecordID != 3 {
		t.Errorf("top result = %d, want 3", results[0].RecordID)
	}
	for _, r := range results {
		if r.RecordID == 1 {
			t.Error("record must not appear in its own results")
		}
	}
}

func TestSimilarToQueryScenario(t *testing.T) {
	e := newEngine(t)

	results, err := e.SimilarToQuery("space battle", 5)
	if err != nil {
		t.Fatalf("SimilarToQuery: %v", err)
	}
	got := make(map[int64]bool, len(results))
	for _, r := range results {
		got[r.RecordID] = true
		if r.Score <= 0 {
			t.Errorf("record %d has non-positive score %v", r.RecordID, r.Score)
		}
	}
	if !got[1] || !got[3] {
		t.Errorf("expected records 1 and 3 in results, got %v", results)
	}
	if got[2] {
		t.Error("record 2 scores zero on 'space battle' and must be omitted")
	}
}

func TestSimilarToQueryEmptyText(t *testing.T) {
	e := newEngine(t)
	results, err := e.SimilarToQuery("", 5)
	if err != nil {
		t.Fatalf("empty query must not error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty query returned %d results", len(results))
	}
}

func TestSimilarToRecordUnknownID(t *testing.T) {
	e := newEngine(t)
	if _, err := e.SimilarToRecord(999, 5); !errors.Is(err, apperrors.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestSimilarBeforeFirstRebuild(t *testing.T) {
	e := New(vectorizer.Options{})
	if e.Ready() {
		t.Error("engine reports ready before first rebuild")
	}
	if _, err := e.SimilarToRecord(1, 5); !errors.Is(err, apperrors.ErrIndexNotReady) {
		t.Errorf("SimilarToRecord err = %v, want ErrIndexNotReady", err)
	}
	if _, err := e.SimilarToQuery("space", 5); !errors.Is(err, apperrors.ErrIndexNotReady) {
		t.Errorf("SimilarToQuery err = %v, want ErrIndexNotReady", err)
	}
}

func TestRebuildEmptyCorpus(t *testing.T) {
	e := New(vectorizer.Options{})
	stats := e.Rebuild(nil)
	if stats.Records != 0 {
		t.Errorf("Records = %d, want 0", stats.Records)
	}
	if !e.Ready() {
		t.Error("engine must be ready after rebuilding from an empty corpus")
	}
	results, err := e.SimilarToQuery("space", 5)
	if err != nil {
		t.Fatalf("query against empty index: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty index returned %d results", len(results))
	}
	if _, err := e.SimilarToRecord(1, 5); !errors.Is(err, apperrors.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestNegativeTopNClamped(t *testing.T) {
	e := newEngine(t)
	results, err := e.SimilarToRecord(1, -3)
	if err != nil {
		t.Fatalf("negative topN must not error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("negative topN returned %d results", len(results))
	}
}

func TestRebuildReplacesSnapshot(t *testing.T) {
	e := newEngine(t)

	// Shrink the corpus; the old record must disappear atomically.
	e.Rebuild(sampleCorpus()[:2])
	if _, err := e.SimilarToRecord(3, 5); !errors.Is(err, apperrors.ErrRecordNotFound) {
		t.Errorf("record 3 should be gone after rebuild, err = %v", err)
	}
	if _, err := e.SimilarToRecord(1, 5); err != nil {
		t.Errorf("record 1 should survive rebuild, err = %v", err)
	}
}

func TestRebuildDeterministic(t *testing.T) {
	a := New(vectorizer.Options{})
	b := New(vectorizer.Options{})
	a.Rebuild(sampleCorpus())
	b.Rebuild(sampleCorpus())

	ra, _ := a.SimilarToQuery("space war romance", 10)
	rb, _ := b.SimilarToQuery("space war romance", 10)
	if !reflect.DeepEqual(ra, rb) {
		t.Errorf("identical corpora produced different rankings:\n%v\n%v", ra, rb)
	}
}

func TestConcurrentQueriesDuringRebuild(t *testing.T) {
	e := newEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if _, err := e.SimilarToQuery("space war", 3); err != nil {
					t.Errorf("query during rebuild: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		e.Rebuild(sampleCorpus())
	}
	wg.Wait()
}
