// Package storage persists the recommendation engine's source index.
package storage

import "context"

// SourceRecord is one persisted source: its embedding plus the metadata the
// engine serves with it.
type SourceRecord struct {
	ID         string
	Text       string
	Embedding  []float64
	Title      string
	URL        string
	SourceType string
}

// Store persists source records behind the engine's add/query contract. The
// engine writes through on every AddSource and bulk-loads at startup; the
// in-memory index remains the query path.
type Store interface {
	SaveSource(ctx context.Context, rec SourceRecord) error
	LoadSources(ctx context.Context) ([]SourceRecord, error)
	Close()
}
