package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// ModelRunnerConfig points at an OpenAI-compatible embeddings endpoint, such
// as a llama.cpp server or a sentence-transformers shim.
type ModelRunnerConfig struct {
	BaseURL    string
	Model      string
	Dimension  int
	Timeout    time.Duration
	MaxRetries int
}

// ModelRunner embeds text by calling a remote inference backend. The HTTP
// client is built lazily on first use, exactly once per process.
type ModelRunner struct {
	cfg    ModelRunnerConfig
	logger *zap.Logger

	once   sync.Once
	client *http.Client
}

type embeddingsRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string or []string
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewModelRunner creates a ModelRunner client for the given backend.
func NewModelRunner(cfg ModelRunnerConfig, logger *zap.Logger) *ModelRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ModelRunner{cfg: cfg, logger: logger}
}

// Dimension returns the configured vector length.
func (m *ModelRunner) Dimension() int {
	return m.cfg.Dimension
}

// Embed returns the model's vector for text.
func (m *ModelRunner) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := m.request(ctx, text, 1)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per input text, in order.
func (m *ModelRunner) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	return m.request(ctx, texts, len(texts))
}

func (m *ModelRunner) request(ctx context.Context, input any, want int) ([][]float64, error) {
	m.load()

	payload, err := json.Marshal(embeddingsRequest{Model: m.cfg.Model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshal embeddings request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/v1/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call embeddings endpoint: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embeddings response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-2xx embeddings response: %s: %s", resp.Status, string(body))
	}

	var out embeddingsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal embeddings response: %w", err)
	}
	if len(out.Data) != want {
		return nil, fmt.Errorf("embeddings response has %d vectors, want %d", len(out.Data), want)
	}

	vecs := make([][]float64, want)
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= want {
			return nil, fmt.Errorf("embeddings response index %d out of range", d.Index)
		}
		if vecs[d.Index] != nil {
			return nil, fmt.Errorf("embeddings response has duplicate index %d", d.Index)
		}
		if len(d.Embedding) != m.cfg.Dimension {
			return nil, fmt.Errorf("model returned %d-dimensional vector, want %d", len(d.Embedding), m.cfg.Dimension)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

// load builds the retrying HTTP client exactly once, safe under concurrent
// first calls.
func (m *ModelRunner) load() {
	m.once.Do(func() {
		m.logger.Info("initializing embedding model client",
			zap.String("model", m.cfg.Model),
			zap.String("base_url", m.cfg.BaseURL),
		)
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = m.cfg.MaxRetries
		retryClient.HTTPClient.Timeout = m.cfg.Timeout
		retryClient.Logger = nil
		m.client = retryClient.StandardClient()
	})
}
