package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/baytalhikmah/pipeline/internal/embedding"
	"github.com/baytalhikmah/pipeline/internal/recommend/storage"
)

// Hybrid blending weights. A source present in only one contribution gets
// only that weighted share.
const (
	contentWeight       = 0.7
	collaborativeWeight = 0.3
)

// entry keeps a source's embedding and metadata together so both become
// visible to readers atomically.
type entry struct {
	vector []float64
	meta   SourceMetadata
}

// Engine maintains the in-memory index of source embeddings and metadata and
// answers content-based, collaborative, and hybrid queries. AddSource is the
// only mutation; queries take a consistent read-locked snapshot.
type Engine struct {
	embedder embedding.Service
	store    storage.Store
	logger   *zap.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

// Option customizes an Engine.
type Option func(*Engine)

// WithStore persists sources write-through and reloads them via Restore,
// keeping the in-memory index as the query cache.
func WithStore(store storage.Store) Option {
	return func(e *Engine) { e.store = store }
}

// NewEngine creates an empty Engine over the given embedding service.
func NewEngine(embedder embedding.Service, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		embedder: embedder,
		logger:   logger,
		entries:  make(map[string]entry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddSource embeds text and indexes it with its metadata under sourceID,
// overwriting any prior entry for that id.
func (e *Engine) AddSource(ctx context.Context, sourceID, text string, meta SourceMetadata) error {
	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed source %s: %w", sourceID, err)
	}
	if e.store != nil {
		rec := storage.SourceRecord{ID: sourceID, Text: text, Embedding: vector, Title: meta.Title, URL: meta.URL, SourceType: meta.SourceType}
		if err := e.store.SaveSource(ctx, rec); err != nil {
			return fmt.Errorf("persist source %s: %w", sourceID, err)
		}
	}

	e.mu.Lock()
	e.entries[sourceID] = entry{vector: vector, meta: meta}
	e.mu.Unlock()

	e.logger.Info("source added to recommendation engine", zap.String("source_id", sourceID))
	return nil
}

// Restore reloads the persisted index into memory. It is called once at
// startup when a store is configured; without a store the engine state does
// not survive restarts. Records whose vector length does not match the
// embedder's dimension (a table written with a different model) are skipped,
// not indexed: every indexed vector must uphold the dimension invariant.
func (e *Engine) Restore(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	records, err := e.store.LoadSources(ctx)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	restored := 0
	e.mu.Lock()
	for _, rec := range records {
		if len(rec.Embedding) != e.embedder.Dimension() {
			e.logger.Warn("skipping source with mismatched embedding dimension",
				zap.String("source_id", rec.ID),
				zap.Int("got", len(rec.Embedding)),
				zap.Int("want", e.embedder.Dimension()),
			)
			continue
		}
		e.entries[rec.ID] = entry{
			vector: rec.Embedding,
			meta:   SourceMetadata{Title: rec.Title, URL: rec.URL, SourceType: rec.SourceType},
		}
		restored++
	}
	e.mu.Unlock()

	e.logger.Info("recommendation index restored",
		zap.Int("sources", restored),
		zap.Int("skipped", len(records)-restored),
	)
	return nil
}

// Len returns the number of indexed sources.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.entries)
}

// ContentBased embeds the query and ranks every indexed source by cosine
// similarity, descending. Equal scores break ties by source id ascending so
// output is reproducible. An empty index yields an empty list, not an error.
// Cost is O(n*d) per query.
func (e *Engine) ContentBased(ctx context.Context, queryText string, limit int) ([]Recommendation, error) {
	e.mu.RLock()
	empty := len(e.entries) == 0
	e.mu.RUnlock()
	if empty {
		return []Recommendation{}, nil
	}

	queryVector, err := e.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	e.mu.RLock()
	recs := make([]Recommendation, 0, len(e.entries))
	for id, ent := range e.entries {
		recs = append(recs, Recommendation{
			SourceID: id,
			Score:    cosineSimilarity(queryVector, ent.vector),
			Metadata: ent.meta,
		})
	}
	e.mu.RUnlock()

	sortRecommendations(recs)
	return truncate(recs, limit), nil
}

// Collaborative is an explicit stub: interactions-based filtering is not
// implemented, and every call reports ErrNoSignal. Callers must treat the
// result as "no signal", not as a failure.
func (e *Engine) Collaborative(_ context.Context, userID string, _ int) ([]Recommendation, error) {
	e.logger.Info("collaborative filtering not implemented yet", zap.String("user_id", userID))
	return nil, ErrNoSignal
}

// Hybrid sums weighted content-based and collaborative contributions per
// source and returns the top entries by combined score. Without a query text
// the content contribution is empty and the result degrades to
// collaborative-only.
func (e *Engine) Hybrid(ctx context.Context, userID, queryText string, limit int) ([]Recommendation, error) {
	scores := make(map[string]float64)
	metas := make(map[string]SourceMetadata)

	if queryText != "" {
		content, err := e.ContentBased(ctx, queryText, limit)
		if err != nil {
			return nil, err
		}
		for _, rec := range content {
			scores[rec.SourceID] += rec.Score * contentWeight
			metas[rec.SourceID] = rec.Metadata
		}
	}

	collaborative, err := e.Collaborative(ctx, userID, limit)
	if err != nil && !errors.Is(err, ErrNoSignal) {
		return nil, err
	}
	for _, rec := range collaborative {
		scores[rec.SourceID] += rec.Score * collaborativeWeight
		if _, ok := metas[rec.SourceID]; !ok {
			metas[rec.SourceID] = rec.Metadata
		}
	}

	recs := make([]Recommendation, 0, len(scores))
	for id, score := range scores {
		recs = append(recs, Recommendation{SourceID: id, Score: score, Metadata: metas[id]})
	}
	sortRecommendations(recs)
	return truncate(recs, limit), nil
}

// sortRecommendations orders by score descending, then source id ascending.
func sortRecommendations(recs []Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].SourceID < recs[j].SourceID
	})
}

func truncate(recs []Recommendation, limit int) []Recommendation {
	if limit > 0 && len(recs) > limit {
		return recs[:limit]
	}
	return recs
}

// cosineSimilarity is the normalized dot product of a and b, in [-1, 1].
// A zero vector has no direction and scores 0 against everything.
func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
