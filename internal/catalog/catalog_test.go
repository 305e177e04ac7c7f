package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	content := `[
		{"title": "Space War", "description": "a war in space", "genres": ["SciFi"]},
		{"title": "Love Story", "description": "a romance in paris", "genres": ["Romance", "Drama"]}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Title != "Space War" {
		t.Errorf("records[0].Title = %q", records[0].Title)
	}
	if len(records[1].Genres) != 2 || records[1].Genres[0] != "Romance" {
		t.Errorf("records[1].Genres = %v", records[1].Genres)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/records.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
