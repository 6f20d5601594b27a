package ingest

import (
	"context"
	"time"
)

// Fetcher fetches a URL and returns the response body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	// Close releases the underlying transport. Callers own the fetcher
	// lifecycle and must close it on every exit path.
	Close()
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces event IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
