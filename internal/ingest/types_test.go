package ingest

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestScrapeRawEventJSONShape(t *testing.T) {
	t.Parallel()

	title := "Some Title"
	ev := ScrapeRawEvent{
		EventID:    "0191e2f0-0000-7000-8000-000000000000",
		URL:        "https://example.com/post",
		SourceType: SourceTypeArticle,
		ScrapedAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Metadata:   Metadata{Title: &title},
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, `"raw_html":null`) {
		t.Fatalf("expected raw_html to serialize as null: %s", body)
	}
	if !strings.Contains(body, `"event_id":"0191e2f0-0000-7000-8000-000000000000"`) {
		t.Fatalf("expected event_id present: %s", body)
	}
	if !strings.Contains(body, `"title":"Some Title"`) {
		t.Fatalf("expected title present: %s", body)
	}
}

func TestMetadataAbsentFieldsSerializeNull(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Metadata{})
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	body := string(raw)
	for _, field := range []string{`"title":null`, `"description":null`, `"author":null`} {
		if !strings.Contains(body, field) {
			t.Fatalf("expected %s in %s", field, body)
		}
	}
}

func TestEmbeddingText(t *testing.T) {
	t.Parallel()

	desc := "A history of the Abbasid translation movement."
	ev := ScrapeProcessedEvent{Title: "Greek Thought, Arabic Culture", Description: &desc}
	if got := ev.EmbeddingText(); got != "Greek Thought, Arabic Culture\n"+desc {
		t.Fatalf("unexpected embedding text: %q", got)
	}

	empty := ""
	ev = ScrapeProcessedEvent{Title: "Title Only", Description: &empty}
	if got := ev.EmbeddingText(); got != "Title Only" {
		t.Fatalf("empty description must not add a newline: %q", got)
	}

	ev = ScrapeProcessedEvent{Title: "No Description"}
	if got := ev.EmbeddingText(); got != "No Description" {
		t.Fatalf("nil description must not add a newline: %q", got)
	}
}
