// Package catalog owns the corpus of records: the Record model, the
// PostgreSQL store, and the change events published after every mutation.
// The similarity engine only ever sees a read snapshot taken from here.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Record is one immutable corpus entry. Genres keep their original order
// for display; similarity treats them as a set.
type Record struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Genres      []string  `json:"genres"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Change event types.
const (
	EventRecordCreated = "record.created"
	EventRecordDeleted = "record.deleted"
)

// ChangeEvent is published to Kafka after every catalog mutation so the
// rebuilder can refresh the similarity index.
type ChangeEvent struct {
	Type       string    `json:"type"`
	RecordID   int64     `json:"record_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LoadFile reads a JSON array of records from disk. Used by the seed
// command to import a corpus file.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file %s: %w", path, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing corpus file %s: %w", path, err)
	}
	return records, nil
}
