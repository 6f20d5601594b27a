// Package ingest contains the core types and logic of the scrape pipeline:
// source classification, metadata extraction, and the scraper that ties them
// to a fetch transport.
package ingest

import "time"

// SourceType is the coarse category assigned to an ingested source.
type SourceType string

// Known source types. Raw events may carry none; processed events always do.
const (
	SourceTypeBook    SourceType = "book"
	SourceTypePaper   SourceType = "paper"
	SourceTypePodcast SourceType = "podcast"
	SourceTypeVideo   SourceType = "video"
	SourceTypeArticle SourceType = "article"
	SourceTypeEssay   SourceType = "essay"
)

// Valid reports whether t is one of the known source types.
func (t SourceType) Valid() bool {
	switch t {
	case SourceTypeBook, SourceTypePaper, SourceTypePodcast, SourceTypeVideo, SourceTypeArticle, SourceTypeEssay:
		return true
	}
	return false
}

// Metadata is the normalized record produced by a scrape. Absent fields stay
// nil and serialize as JSON null; absence is a valid terminal state.
type Metadata struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Author      *string    `json:"author"`
	URL         string     `json:"url,omitempty"`
	ISBN        string     `json:"isbn,omitempty"`
	SourceType  SourceType `json:"source_type,omitempty"`
}

// ScrapeRawEvent is published to the raw-scrape topic after every successful
// scrape. It is immutable once published; EventID is the idempotency key for
// downstream consumers. RawHTML is always null; page bodies are not retained.
type ScrapeRawEvent struct {
	EventID    string     `json:"event_id"`
	URL        string     `json:"url"`
	SourceType SourceType `json:"source_type,omitempty"`
	ScrapedAt  time.Time  `json:"scraped_at"`
	RawHTML    *string    `json:"raw_html"`
	Metadata   Metadata   `json:"metadata"`
}

// ScrapeProcessedEvent is the shape produced by the downstream enrichment
// consumer. The pipeline does not create these, but the recommendation
// engine's source registration consumes them.
type ScrapeProcessedEvent struct {
	EventID     string     `json:"event_id"`
	URL         string     `json:"url"`
	SourceType  SourceType `json:"source_type"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Author      *string    `json:"author,omitempty"`
	Publisher   *string    `json:"publisher,omitempty"`
	ISBN        *string    `json:"isbn,omitempty"`
	DOI         *string    `json:"doi,omitempty"`
	Tags        []string   `json:"tags"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ProcessedAt time.Time  `json:"processed_at"`
}

// EmbeddingText concatenates the searchable fields of a processed event into
// the text that gets embedded when the source is registered with the engine.
func (e ScrapeProcessedEvent) EmbeddingText() string {
	text := e.Title
	if e.Description != nil && *e.Description != "" {
		text += "\n" + *e.Description
	}
	return text
}
