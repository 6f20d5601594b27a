package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/baytalhikmah/pipeline/internal/embedding"
	"github.com/baytalhikmah/pipeline/internal/ingest"
	"github.com/baytalhikmah/pipeline/internal/recommend"
)

const defaultRecommendationLimit = 10

// RecommendServer serves recommendation and embedding queries.
type RecommendServer struct {
	router   chi.Router
	engine   *recommend.Engine
	embedder embedding.Service
	logger   *zap.Logger
}

// NewRecommendServer wires routes to the engine and embedding service.
func NewRecommendServer(engine *recommend.Engine, embedder embedding.Service, logger *zap.Logger) *RecommendServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RecommendServer{
		engine:   engine,
		embedder: embedder,
		logger:   logger,
	}

	r := newRouter(logger)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommendations", s.recommendations)
		r.Post("/embeddings", s.embeddings)
		r.Post("/sources", s.registerSource)
	})
	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *RecommendServer) Handler() http.Handler {
	return s.router
}

func (s *RecommendServer) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *RecommendServer) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type recommendationRequest struct {
	UserID             string `json:"user_id"`
	RecommendationType string `json:"recommendation_type"`
	QueryText          string `json:"query_text,omitempty"`
	Limit              int    `json:"limit"`
}

type recommendationResponse struct {
	SourceID string  `json:"source_id"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}

func (s *RecommendServer) recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.RecommendationType == "" {
		req.RecommendationType = string(recommend.StrategyHybrid)
	}
	strategy, err := recommend.ParseStrategy(req.RecommendationType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}
	s.logger.Info("recommendation request",
		zap.String("user_id", req.UserID),
		zap.String("recommendation_type", string(strategy)),
	)
	ingest.RecommendationQueries.WithLabelValues(string(strategy)).Inc()

	var recs []recommend.Recommendation
	switch strategy {
	case recommend.StrategyContentBased:
		recs, err = s.engine.ContentBased(r.Context(), req.QueryText, limit)
	case recommend.StrategyCollaborative:
		recs, err = s.engine.Collaborative(r.Context(), req.UserID, limit)
		if errors.Is(err, recommend.ErrNoSignal) {
			err = nil
		}
	case recommend.StrategyHybrid:
		recs, err = s.engine.Hybrid(r.Context(), req.UserID, req.QueryText, limit)
	}
	if err != nil {
		s.logger.Error("recommendation query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "recommendation query failed")
		return
	}

	out := make([]recommendationResponse, 0, len(recs))
	for _, rec := range recs {
		title := rec.Metadata.Title
		if title == "" {
			title = "Unknown"
		}
		out = append(out, recommendationResponse{
			SourceID: rec.SourceID,
			Title:    title,
			Score:    rec.Score,
			Reason:   "Based on your reading history",
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// registerSource indexes a processed scrape event. The enrichment consumer
// calls this for every scrape.processed event; re-delivery of the same event
// id is a harmless overwrite.
func (s *RecommendServer) registerSource(w http.ResponseWriter, r *http.Request) {
	var ev ingest.ScrapeProcessedEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if ev.EventID == "" || ev.Title == "" {
		writeError(w, http.StatusBadRequest, "event_id and title required")
		return
	}
	if !ev.SourceType.Valid() {
		writeError(w, http.StatusBadRequest, "unknown source_type")
		return
	}
	if err := s.engine.AddProcessed(r.Context(), ev); err != nil {
		s.logger.Error("register source failed", zap.String("event_id", ev.EventID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "register source failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"source_id": ev.EventID})
}

type embeddingRequest struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Vector    []float64 `json:"vector"`
	Dimension int       `json:"dimension"`
}

func (s *RecommendServer) embeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s.logger.Info("embedding request", zap.Int("text_length", len(req.Text)))

	vector, err := s.embedder.Embed(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("embedding failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "embedding failed")
		return
	}
	writeJSON(w, http.StatusOK, embeddingResponse{Vector: vector, Dimension: len(vector)})
}
