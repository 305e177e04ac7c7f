package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mediasearch/similarity-service/internal/catalog"
	"github.com/mediasearch/similarity-service/internal/engine"
	"github.com/mediasearch/similarity-service/internal/engine/vectorizer"
	"github.com/mediasearch/similarity-service/pkg/config"
	apperrors "github.com/mediasearch/similarity-service/pkg/errors"
)

type fakeStore struct {
	records map[int64]catalog.Record
	nextID  int64
}

func newFakeStore(records ...catalog.Record) *fakeStore {
	s := &fakeStore{records: make(map[int64]catalog.Record), nextID: 1}
	for _, r := range records {
		s.records[r.ID] = r
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
	return s
}

func (s *fakeStore) List(ctx context.Context) ([]catalog.Record, error) {
	out := make([]catalog.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeStore) Get(ctx context.Context, id int64) (*catalog.Record, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, apperrors.ErrRecordNotFound
	}
	return &r, nil
}

func (s *fakeStore) Create(ctx context.Context, r *catalog.Record) error {
	r.ID = s.nextID
	s.nextID++
	s.records[r.ID] = *r
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.records[id]; !ok {
		return apperrors.ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}

type fakeEvents struct {
	published []string
}

func (f *fakeEvents) PublishChange(ctx context.Context, eventType string, recordID int64) {
	f.published = append(f.published, eventType)
}

type fakeRebuilder struct {
	requests []string
}

func (f *fakeRebuilder) Request(reason string) {
	f.requests = append(f.requests, reason)
}

func sampleCorpus() []catalog.Record {
	return []catalog.Record{
		{ID: 1, Title: "Space War", Description: "a war in space", Genres: []string{"SciFi"}},
		{ID: 2, Title: "Love Story", Description: "a romance in paris", Genres: []string{"Romance"}},
		{ID: 3, Title: "Space Romance", Description: "love and war in space", Genres: []string{"SciFi", "Romance"}},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeStore, *fakeEvents, *fakeRebuilder) {
	t.Helper()
	store := newFakeStore(sampleCorpus()...)

	eng := engine.New(vectorizer.Options{})
	docs := make([]engine.Document, 0, len(store.records))
	for _, r := range sampleCorpus() {
		docs = append(docs, engine.Document{
			ID: r.ID, Title: r.Title, Description: r.Description, Genres: r.Genres,
		})
	}
	eng.Rebuild(docs)

	events := &fakeEvents{}
	reb := &fakeRebuilder{}
	h := New(store, eng, events, nil, nil, reb, nil, config.EngineConfig{
		DefaultLimit: 10,
		MaxResults:   25,
	})
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store, events, reb
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestSimilarEndpoint(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	var body similarResponse
	status := getJSON(t, srv.URL+"/api/v1/records/1/similar?limit=2", &body)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(body.Results) == 0 {
		t.Fatal("expected results")
	}
	if body.Results[0].RecordID != 3 {
		t.Errorf("top result = %d, want 3", body.Results[0].RecordID)
	}
	for _, r := range body.Results {
		if r.RecordID == 1 {
			t.Error("self id in results")
		}
	}
}

func TestSimilarUnknownRecord(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	if status := getJSON(t, srv.URL+"/api/v1/records/999/similar", nil); status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}

func TestSimilarBadID(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	if status := getJSON(t, srv.URL+"/api/v1/records/abc/similar", nil); status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	var body similarResponse
	status := getJSON(t, srv.URL+"/api/v1/search?q=space+battle&limit=5", &body)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	ids := make(map[int64]bool)
	for _, r := range body.Results {
		ids[r.RecordID] = true
	}
	if !ids[1] || !ids[3] {
		t.Errorf("expected records 1 and 3, got %v", body.Results)
	}
	if ids[2] {
		t.Error("zero-scoring record 2 must be omitted")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	var body similarResponse
	status := getJSON(t, srv.URL+"/api/v1/search?q=", &body)
	if status != http.StatusOK {
		t.Fatalf("empty query status = %d, want 200", status)
	}
	if len(body.Results) != 0 {
		t.Errorf("empty query returned %d results", len(body.Results))
	}
}

func TestSearchBadLimit(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	if status := getJSON(t, srv.URL+"/api/v1/search?q=space&limit=ten", nil); status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestLimitCappedAtMaxResults(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	// limit=9999 must be capped to MaxResults (25), not rejected.
	if status := getJSON(t, srv.URL+"/api/v1/search?q=space&limit=9999", nil); status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
}

func TestCreateRecord(t *testing.T) {
	srv, store, events, _ := newTestServer(t)

	payload := `{"title":"Moon Base","description":"life in a lunar colony","genres":["SciFi"]}`
	resp, err := http.Post(srv.URL+"/api/v1/records", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var created catalog.Record
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 {
		t.Error("created record has no id")
	}
	if _, ok := store.records[created.ID]; !ok {
		t.Error("record not persisted")
	}
	if len(events.published) != 1 || events.published[0] != catalog.EventRecordCreated {
		t.Errorf("published events = %v", events.published)
	}
}

func TestCreateRecordValidation(t *testing.T) {
	srv, _, events, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/records", "application/json",
		strings.NewReader(`{"title":"   ","description":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(events.published) != 0 {
		t.Error("invalid record must not publish a change event")
	}
}

func TestDeleteRecord(t *testing.T) {
	srv, store, events, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/records/2", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if _, ok := store.records[2]; ok {
		t.Error("record still present after delete")
	}
	if len(events.published) != 1 || events.published[0] != catalog.EventRecordDeleted {
		t.Errorf("published events = %v", events.published)
	}
}

func TestDeleteMissingRecord(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/records/999", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestListRecords(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	var body recordListResponse
	if status := getJSON(t, srv.URL+"/api/v1/records", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body.Count != 3 {
		t.Errorf("count = %d, want 3", body.Count)
	}
}

func TestTriggerRebuild(t *testing.T) {
	srv, _, _, reb := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/v1/index/rebuild", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if len(reb.requests) != 1 || reb.requests[0] != "manual" {
		t.Errorf("rebuild requests = %v", reb.requests)
	}
}

func TestCacheStatsWithoutCache(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	var body map[string]any
	if status := getJSON(t, srv.URL+"/api/v1/cache/stats", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if enabled, _ := body["enabled"].(bool); enabled {
		t.Error("cache should report disabled")
	}
}
