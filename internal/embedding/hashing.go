package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Hashing is a local, deterministic embedding model based on feature hashing:
// each token is hashed into one of Dimension() buckets with a hashed sign,
// and the resulting vector is L2-normalized. It needs no external inference
// backend, which makes it the default model for development and tests.
type Hashing struct {
	dimension int
	logger    *zap.Logger

	once     sync.Once
	tokenize *regexp.Regexp
}

// NewHashing creates a Hashing model of the given dimension.
func NewHashing(dimension int, logger *zap.Logger) *Hashing {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hashing{dimension: dimension, logger: logger}
}

// Dimension returns the configured vector length.
func (h *Hashing) Dimension() int {
	return h.dimension
}

// Embed returns the feature-hashed vector for text. The empty string maps to
// the zero vector, still of full dimension.
func (h *Hashing) Embed(_ context.Context, text string) ([]float64, error) {
	h.load()

	vec := make([]float64, h.dimension)
	for _, token := range h.tokenize.FindAllString(strings.ToLower(text), -1) {
		hasher := fnv.New64a()
		hasher.Write([]byte(token)) //nolint:errcheck // fnv never fails
		sum := hasher.Sum64()
		idx := int(sum % uint64(h.dimension))
		if sum&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// EmbedBatch embeds every text in order.
func (h *Hashing) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for _, text := range texts {
		vec, err := h.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

// load initializes the tokenizer exactly once, safe under concurrent first
// calls.
func (h *Hashing) load() {
	h.once.Do(func() {
		h.logger.Info("loading hashing embedding model", zap.Int("dimension", h.dimension))
		h.tokenize = regexp.MustCompile(`[\p{L}\p{N}]+`)
	})
}
