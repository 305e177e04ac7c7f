// Package ranker scores a query vector against every vector in an index
// snapshot and returns the top results by cosine similarity.
package ranker

import (
	"math"
	"sort"

	"github.com/mediasearch/similarity-service/internal/engine/index"
	"github.com/mediasearch/similarity-service/internal/engine/vectorizer"
)

// ScoredRecord pairs a record id with its similarity score.
type ScoredRecord struct {
	RecordID int64   `json:"record_id"`
	Score    float64 `json:"score"`
}

// Rank scores query against every vector in the snapshot and returns at
// most topN results, best first. Stored vectors and the query vector are
// pre-normalised, so cosine similarity reduces to a dot product.
//
// Records scoring exactly zero are omitted. Ordering is descending by
// score with ties broken by ascending record id. topN <= 0 yields an
// empty slice.
func Rank(query vectorizer.Vector, snap *index.Snapshot, topN int) []ScoredRecord {
	return rank(query, snap, topN, func(int64) bool { return false })
}

// RankExcluding behaves like Rank but skips excludeID, so a record never
// appears in its own similarity results.
func RankExcluding(query vectorizer.Vector, snap *index.Snapshot, excludeID int64, topN int) []ScoredRecord {
	return rank(query, snap, topN, func(id int64) bool { return id == excludeID })
}

func rank(query vectorizer.Vector, snap *index.Snapshot, topN int, skip func(int64) bool) []ScoredRecord {
	if topN <= 0 || len(query) == 0 {
		return []ScoredRecord{}
	}
	scored := make([]ScoredRecord, 0, snap.Len())
	for _, id := range snap.IDs() {
		if skip(id) {
			continue
		}
		vec, err := snap.VectorOf(id)
		if err != nil {
			continue
		}
		score := query.Dot(vec)
		if score == 0 {
			continue
		}
		scored = append(scored, ScoredRecord{
			RecordID: id,
			Score:    math.Round(score*10000) / 10000,
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].RecordID < scored[j].RecordID
	})
	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}
