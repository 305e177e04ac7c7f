// Package engine is the content-similarity core: it owns the current index
// snapshot and answers "similar to record X" and "similar to text Q"
// queries over it.
//
// The snapshot is replaced wholesale on rebuild via an atomic pointer swap,
// so concurrent queries always see either the old generation in full or the
// new one in full. Queries are pure CPU work over in-memory data.
package engine

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mediasearch/similarity-service/internal/engine/index"
	"github.com/mediasearch/similarity-service/internal/engine/ranker"
	"github.com/mediasearch/similarity-service/internal/engine/vectorizer"
	apperrors "github.com/mediasearch/similarity-service/pkg/errors"
)

// Document is the corpus record shape the engine consumes at rebuild time.
type Document = index.Document

// RebuildStats summarises one completed rebuild.
type RebuildStats struct {
	Records    int
	Terms      int
	Genres     int
	Dimensions int
	Duration   time.Duration
}

// Engine holds the live index snapshot and exposes the query operations.
type Engine struct {
	opts   vectorizer.Options
	snap   atomic.Pointer[index.Snapshot]
	logger *slog.Logger
}

// New creates an Engine with no snapshot. Queries fail with
// ErrIndexNotReady until the first Rebuild.
func New(opts vectorizer.Options) *Engine {
	return &Engine{
		opts:   opts,
		logger: slog.Default().With("component", "similarity-engine"),
	}
}

// Rebuild constructs a fresh snapshot from the given corpus and swaps it in
// atomically. An empty corpus produces a valid empty index, never an error.
// This is the only mutation path; per-record incremental updates are not
// supported because idf depends on the whole corpus.
func (e *Engine) Rebuild(docs []Document) RebuildStats {
	start := time.Now()
	snap := index.Build(docs, e.opts)
	e.snap.Store(snap)

	stats := RebuildStats{
		Records:    snap.Len(),
		Terms:      snap.Vocabulary().NumTerms(),
		Genres:     snap.Vocabulary().NumGenres(),
		Dimensions: snap.Vocabulary().NumDims(),
		Duration:   time.Since(start),
	}
	e.logger.Info("index rebuilt",
		"records", stats.Records,
		"terms", stats.Terms,
		"genres", stats.Genres,
		"duration", stats.Duration,
	)
	return stats
}

// SimilarToRecord returns up to topN records most similar to the given
// record, best first, never including the record itself. It fails with
// ErrRecordNotFound if the id was absent from the snapshot's corpus and
// ErrIndexNotReady before the first rebuild. Negative topN is clamped
// to zero.
func (e *Engine) SimilarToRecord(id int64, topN int) ([]ranker.ScoredRecord, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, apperrors.ErrIndexNotReady
	}
	query, err := snap.VectorOf(id)
	if err != nil {
		return nil, err
	}
	if topN < 0 {
		topN = 0
	}
	return ranker.RankExcluding(query, snap, id, topN), nil
}

// SimilarToQuery ranks records against free text vectorized over the
// current snapshot's vocabulary. Text with no recognised terms (including
// the empty string) yields an empty result, not an error.
func (e *Engine) SimilarToQuery(text string, topN int) ([]ranker.ScoredRecord, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, apperrors.ErrIndexNotReady
	}
	if topN < 0 {
		topN = 0
	}
	return ranker.Rank(snap.QueryVector(text), snap, topN), nil
}

// Ready reports whether at least one rebuild has completed.
func (e *Engine) Ready() bool {
	return e.snap.Load() != nil
}

// Snapshot returns the current snapshot, or nil before the first rebuild.
// Intended for health checks and stats endpoints.
func (e *Engine) Snapshot() *index.Snapshot {
	return e.snap.Load()
}
