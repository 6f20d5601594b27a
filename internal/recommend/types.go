// Package recommend ranks ingested sources by blending content similarity
// with collaborative signals.
package recommend

import (
	"errors"
	"fmt"
)

// Strategy selects how recommendations are produced. It is a closed set:
// adding a strategy means adding a constant and a case, checked at compile
// time rather than scattered string branching.
type Strategy string

// Supported strategies.
const (
	StrategyContentBased  Strategy = "content_based"
	StrategyCollaborative Strategy = "collaborative"
	StrategyHybrid        Strategy = "hybrid"
)

// ParseStrategy validates a wire-format strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyContentBased, StrategyCollaborative, StrategyHybrid:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown recommendation type %q", s)
}

// ErrNoSignal marks a strategy that has no data to rank with. It is the
// explicit "collaborative filtering is not implemented" result: callers treat
// it as an empty contribution, never as a failure.
var ErrNoSignal = errors.New("no recommendation signal")

// SourceMetadata is the descriptive record stored alongside each source
// embedding.
type SourceMetadata struct {
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	SourceType string `json:"source_type,omitempty"`
}

// Recommendation is one ranked entry of a query result. It is computed per
// query and never persisted.
type Recommendation struct {
	SourceID string         `json:"source_id"`
	Score    float64        `json:"score"`
	Metadata SourceMetadata `json:"metadata"`
}
