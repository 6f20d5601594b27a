package recommend

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/baytalhikmah/pipeline/internal/embedding"
	"github.com/baytalhikmah/pipeline/internal/ingest"
	"github.com/baytalhikmah/pipeline/internal/recommend/storage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(embedding.NewHashing(64, zap.NewNop()), zap.NewNop())
}

func addSource(t *testing.T, e *Engine, id, text, title string) {
	t.Helper()
	err := e.AddSource(context.Background(), id, text, SourceMetadata{Title: title, SourceType: "article"})
	if err != nil {
		t.Fatalf("AddSource(%s) error = %v", id, err)
	}
}

func TestContentBasedExactMatchRanksFirst(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	addSource(t, e, "src-math", "introduction to algebraic topology", "Topology")
	addSource(t, e, "src-cook", "mediterranean cooking with olive oil", "Cooking")
	addSource(t, e, "src-hist", "history of the abbasid caliphate", "History")

	recs, err := e.ContentBased(context.Background(), "introduction to algebraic topology", 10)
	if err != nil {
		t.Fatalf("ContentBased() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
	if recs[0].SourceID != "src-math" {
		t.Fatalf("expected exact match first, got %q", recs[0].SourceID)
	}
	if math.Abs(recs[0].Score-1.0) > 1e-9 {
		t.Fatalf("expected near-1.0 similarity for identical text, got %f", recs[0].Score)
	}
	for _, rec := range recs {
		if rec.Score < -1-1e-9 || rec.Score > 1+1e-9 {
			t.Fatalf("score out of [-1, 1]: %f", rec.Score)
		}
	}
}

func TestContentBasedEmptyIndex(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	recs, err := e.ContentBased(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("ContentBased() error = %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", recs)
	}
}

func TestContentBasedLimit(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	addSource(t, e, "a", "alpha text", "A")
	addSource(t, e, "b", "beta text", "B")
	addSource(t, e, "c", "gamma text", "C")
	addSource(t, e, "d", "delta text", "D")

	recs, err := e.ContentBased(context.Background(), "text", 2)
	if err != nil {
		t.Fatalf("ContentBased() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected limit to cap results at 2, got %d", len(recs))
	}
}

func TestContentBasedDeterministicTieBreak(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	// Identical text gives identical scores; ties order by id ascending.
	addSource(t, e, "zzz", "same exact text", "Z")
	addSource(t, e, "aaa", "same exact text", "A")
	addSource(t, e, "mmm", "same exact text", "M")

	recs, err := e.ContentBased(context.Background(), "same exact text", 10)
	if err != nil {
		t.Fatalf("ContentBased() error = %v", err)
	}
	want := []string{"aaa", "mmm", "zzz"}
	for i, id := range want {
		if recs[i].SourceID != id {
			t.Fatalf("tie-break order wrong at %d: got %q, want %q", i, recs[i].SourceID, id)
		}
	}
}

func TestAddSourceOverwrites(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	addSource(t, e, "src-1", "first version", "Old Title")
	addSource(t, e, "src-1", "second version", "New Title")

	if e.Len() != 1 {
		t.Fatalf("expected 1 entry after overwrite, got %d", e.Len())
	}
	recs, err := e.ContentBased(context.Background(), "second version", 1)
	if err != nil {
		t.Fatalf("ContentBased() error = %v", err)
	}
	if recs[0].Metadata.Title != "New Title" {
		t.Fatalf("expected overwritten metadata, got %q", recs[0].Metadata.Title)
	}
}

func TestCollaborativeReturnsNoSignal(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	recs, err := e.Collaborative(context.Background(), "user-1", 10)
	if !errors.Is(err, ErrNoSignal) {
		t.Fatalf("expected ErrNoSignal, got %v", err)
	}
	if recs != nil {
		t.Fatalf("expected nil recommendations, got %v", recs)
	}
}

func TestHybridAppliesContentWeight(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	addSource(t, e, "src-1", "quantum field theory lectures", "QFT")

	content, err := e.ContentBased(context.Background(), "quantum field theory lectures", 10)
	if err != nil {
		t.Fatalf("ContentBased() error = %v", err)
	}
	hybrid, err := e.Hybrid(context.Background(), "user-1", "quantum field theory lectures", 10)
	if err != nil {
		t.Fatalf("Hybrid() error = %v", err)
	}
	if len(hybrid) != 1 {
		t.Fatalf("expected 1 hybrid recommendation, got %d", len(hybrid))
	}
	if math.Abs(hybrid[0].Score-content[0].Score*0.7) > 1e-9 {
		t.Fatalf("hybrid score %f is not 0.7 of content score %f", hybrid[0].Score, content[0].Score)
	}
}

func TestHybridWithoutQueryText(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	addSource(t, e, "src-1", "some indexed source", "S")

	// No query and no collaborative signal leaves nothing to rank.
	recs, err := e.Hybrid(context.Background(), "user-1", "", 10)
	if err != nil {
		t.Fatalf("Hybrid() error = %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty result, got %v", recs)
	}
}

func TestHybridLimit(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		addSource(t, e, id, "shared vocabulary for everyone "+id, id)
	}

	recs, err := e.Hybrid(context.Background(), "user-1", "shared vocabulary", 3)
	if err != nil {
		t.Fatalf("Hybrid() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 results, got %d", len(recs))
	}
}

func TestAddProcessedRegistersSource(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	desc := "the classical islamic library of baghdad"
	ev := ingest.ScrapeProcessedEvent{
		EventID:     "evt-1",
		URL:         "https://example.com/house-of-wisdom",
		SourceType:  ingest.SourceTypeArticle,
		Title:       "The House of Wisdom",
		Description: &desc,
	}
	if err := e.AddProcessed(context.Background(), ev); err != nil {
		t.Fatalf("AddProcessed() error = %v", err)
	}

	recs, err := e.ContentBased(context.Background(), "classical islamic library", 1)
	if err != nil {
		t.Fatalf("ContentBased() error = %v", err)
	}
	if len(recs) != 1 || recs[0].SourceID != "evt-1" {
		t.Fatalf("expected registered source, got %v", recs)
	}
	if recs[0].Metadata.Title != "The House of Wisdom" {
		t.Fatalf("unexpected metadata title %q", recs[0].Metadata.Title)
	}
}

type fakeStore struct {
	records []storage.SourceRecord
	saved   []storage.SourceRecord
}

func (s *fakeStore) SaveSource(_ context.Context, rec storage.SourceRecord) error {
	s.saved = append(s.saved, rec)
	return nil
}

func (s *fakeStore) LoadSources(_ context.Context) ([]storage.SourceRecord, error) {
	return s.records, nil
}

func (s *fakeStore) Close() {}

func TestRestoreSkipsMismatchedDimensions(t *testing.T) {
	t.Parallel()

	embedder := embedding.NewHashing(8, zap.NewNop())
	good, err := embedder.Embed(context.Background(), "a well formed persisted source")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	store := &fakeStore{records: []storage.SourceRecord{
		{ID: "stale", Text: "written by an older model", Embedding: []float64{1, 0}, Title: "Stale"},
		{ID: "good", Text: "a well formed persisted source", Embedding: good, Title: "Good"},
	}}
	e := NewEngine(embedder, zap.NewNop(), WithStore(store))

	if err := e.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if e.Len() != 1 {
		t.Fatalf("expected only the matching record indexed, got %d", e.Len())
	}

	recs, err := e.ContentBased(context.Background(), "any query text", 5)
	if err != nil {
		t.Fatalf("ContentBased() after restore error = %v", err)
	}
	if len(recs) != 1 || recs[0].SourceID != "good" {
		t.Fatalf("unexpected recommendations after restore: %v", recs)
	}
}

func TestAddSourceWritesThroughStore(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	e := NewEngine(embedding.NewHashing(8, zap.NewNop()), zap.NewNop(), WithStore(store))
	addSource(t, e, "src-1", "persisted text", "T")

	if len(store.saved) != 1 || store.saved[0].ID != "src-1" {
		t.Fatalf("expected write-through save, got %v", store.saved)
	}
	if len(store.saved[0].Embedding) != 8 {
		t.Fatalf("persisted vector has %d dims, want 8", len(store.saved[0].Embedding))
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"both zero", []float64{0, 0}, []float64{0, 0}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := cosineSimilarity(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("cosineSimilarity() = %f, want %f", got, tc.want)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]Strategy{
		"content_based": StrategyContentBased,
		"collaborative": StrategyCollaborative,
		"hybrid":        StrategyHybrid,
	} {
		got, err := ParseStrategy(raw)
		if err != nil || got != want {
			t.Fatalf("ParseStrategy(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseStrategy("magic"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
