package recommend

import (
	"context"

	"github.com/baytalhikmah/pipeline/internal/ingest"
)

// AddProcessed registers an enriched scrape event as a recommendable source,
// keyed by its event id. Duplicate deliveries of the same event overwrite the
// same entry, which makes registration idempotent under at-least-once
// delivery.
func (e *Engine) AddProcessed(ctx context.Context, ev ingest.ScrapeProcessedEvent) error {
	meta := SourceMetadata{
		Title:      ev.Title,
		URL:        ev.URL,
		SourceType: string(ev.SourceType),
	}
	return e.AddSource(ctx, ev.EventID, ev.EmbeddingText(), meta)
}
