// Package index builds and holds one immutable snapshot of the similarity
// index: a vocabulary/idf table plus one normalised vector per record.
// A snapshot is produced whole by Build and never mutated afterwards;
// corpus changes are handled by building a replacement snapshot.
package index

import (
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mediasearch/similarity-service/internal/engine/tokenizer"
	"github.com/mediasearch/similarity-service/internal/engine/vectorizer"
	"github.com/mediasearch/similarity-service/internal/engine/vocab"
	apperrors "github.com/mediasearch/similarity-service/pkg/errors"
)

// Document is the read snapshot of one corpus record the index consumes at
// build time. The index owns nothing beyond what it copies here.
type Document struct {
	ID          int64
	Title       string
	Description string
	Genres      []string
}

// Snapshot is one internally consistent generation of the index: every
// vector was produced from the same vocabulary and idf table.
type Snapshot struct {
	voc     *vocab.Vocabulary
	vectors map[int64]vectorizer.Vector
	ids     []int64
	opts    vectorizer.Options
	builtAt time.Time
}

// Build tokenizes and vectorizes every document and returns the finished
// snapshot. An empty corpus yields a valid empty snapshot. Vectorisation
// fans out across CPUs; each goroutine writes a disjoint slice slot, so no
// locking is needed.
func Build(docs []Document, opts vectorizer.Options) *Snapshot {
	docTerms := make([][]string, len(docs))
	docGenres := make([][]string, len(docs))
	for i, doc := range docs {
		docTerms[i] = tokenizer.TokenizeFiltered(doc.Title + " " + doc.Description)
		docGenres[i] = doc.Genres
	}

	voc := vocab.Build(docTerms, docGenres)

	vecs := make([]vectorizer.Vector, len(docs))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range docs {
		g.Go(func() error {
			vecs[i] = vectorizer.Vectorize(docTerms[i], docGenres[i], voc, opts)
			return nil
		})
	}
	// Workers never return errors; Wait is only a join point.
	_ = g.Wait()

	s := &Snapshot{
		voc:     voc,
		vectors: make(map[int64]vectorizer.Vector, len(docs)),
		ids:     make([]int64, 0, len(docs)),
		opts:    opts,
		builtAt: time.Now(),
	}
	for i, doc := range docs {
		if _, dup := s.vectors[doc.ID]; !dup {
			s.ids = append(s.ids, doc.ID)
		}
		s.vectors[doc.ID] = vecs[i]
	}
	sort.Slice(s.ids, func(i, j int) bool { return s.ids[i] < s.ids[j] })
	return s
}

// VectorOf returns the stored vector for a record, or ErrRecordNotFound if
// the id was not part of the corpus snapshot this index was built from.
func (s *Snapshot) VectorOf(id int64) (vectorizer.Vector, error) {
	vec, ok := s.vectors[id]
	if !ok {
		return nil, apperrors.ErrRecordNotFound
	}
	return vec, nil
}

// QueryVector vectorizes free text against this snapshot's vocabulary.
// Out-of-vocabulary terms drop out; a query with no recognised terms
// produces the zero vector.
func (s *Snapshot) QueryVector(text string) vectorizer.Vector {
	terms := tokenizer.TokenizeFiltered(text)
	return vectorizer.Vectorize(terms, nil, s.voc, s.opts)
}

// IDs returns all record ids in ascending order. Callers must not modify
// the returned slice.
func (s *Snapshot) IDs() []int64 {
	return s.ids
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.ids)
}

// Vocabulary returns the snapshot's shared vocabulary.
func (s *Snapshot) Vocabulary() *vocab.Vocabulary {
	return s.voc
}

// BuiltAt returns when this snapshot was constructed.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}
