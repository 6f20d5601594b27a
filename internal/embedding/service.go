// Package embedding maps text to fixed-dimension vectors.
package embedding

import "context"

// Service produces embedding vectors. Implementations guarantee that every
// vector has exactly Dimension() entries, for any input including the empty
// string, and that the underlying model loads at most once per process even
// under concurrent first use.
type Service interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
}
