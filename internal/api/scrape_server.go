package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/baytalhikmah/pipeline/internal/ingest"
	"github.com/baytalhikmah/pipeline/internal/publisher"
)

// ScraperFactory builds a fresh scraper per request. The handler owns the
// returned scraper and releases it on every exit path.
type ScraperFactory func() *ingest.Scraper

// ScrapeServer serves the ingestion endpoints: scrape a URL or ISBN,
// publish the resulting raw event.
type ScrapeServer struct {
	router     chi.Router
	newScraper ScraperFactory
	pub        publisher.EventPublisher
	idGen      ingest.IDGenerator
	clock      ingest.Clock
	rawTopic   string
	logger     *zap.Logger
}

// NewScrapeServer wires routes to the scraper factory and publisher.
func NewScrapeServer(
	newScraper ScraperFactory,
	pub publisher.EventPublisher,
	idGen ingest.IDGenerator,
	clock ingest.Clock,
	rawTopic string,
	logger *zap.Logger,
) *ScrapeServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ScrapeServer{
		newScraper: newScraper,
		pub:        pub,
		idGen:      idGen,
		clock:      clock,
		rawTopic:   rawTopic,
		logger:     logger,
	}

	r := newRouter(logger)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scrape", s.scrapeURL)
		r.Post("/scrape/isbn/{isbn}", s.scrapeISBN)
	})
	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *ScrapeServer) Handler() http.Handler {
	return s.router
}

func (s *ScrapeServer) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *ScrapeServer) readyz(w http.ResponseWriter, _ *http.Request) {
	if s.pub.State() != publisher.StateConnected {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "publisher not connected",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type scrapeRequest struct {
	URL          string            `json:"url"`
	SourceType   ingest.SourceType `json:"source_type,omitempty"`
	ForceRefresh bool              `json:"force_refresh,omitempty"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EventID string `json:"event_id,omitempty"`
}

func (s *ScrapeServer) scrapeURL(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}
	if req.SourceType != "" && !req.SourceType.Valid() {
		writeError(w, http.StatusBadRequest, "unknown source_type")
		return
	}

	eventID, err := s.idGen.NewID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generate event id failed")
		return
	}
	s.logger.Info("received scrape request", zap.String("event_id", eventID), zap.String("url", req.URL))

	scraper := s.newScraper()
	defer scraper.Close()

	meta, err := scraper.ScrapeURL(r.Context(), req.URL)
	if err != nil {
		s.logger.Error("scraping failed", zap.String("event_id", eventID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, scrapeResponse{Success: false, Message: err.Error()})
		return
	}
	// An explicit hint from the caller wins over URL classification.
	if req.SourceType != "" {
		meta.SourceType = req.SourceType
	}

	s.publishRawEvent(r, eventID, req.URL, meta)
	writeJSON(w, http.StatusOK, scrapeResponse{
		Success: true,
		Message: "Scraping completed successfully",
		EventID: eventID,
	})
}

func (s *ScrapeServer) scrapeISBN(w http.ResponseWriter, r *http.Request) {
	isbn := chi.URLParam(r, "isbn")
	if isbn == "" {
		writeError(w, http.StatusBadRequest, "isbn required")
		return
	}

	eventID, err := s.idGen.NewID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generate event id failed")
		return
	}
	s.logger.Info("received isbn scrape request", zap.String("event_id", eventID), zap.String("isbn", isbn))

	scraper := s.newScraper()
	defer scraper.Close()

	meta, err := scraper.ScrapeISBN(r.Context(), isbn)
	if err != nil {
		s.logger.Error("isbn scraping failed", zap.String("event_id", eventID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, scrapeResponse{Success: false, Message: err.Error()})
		return
	}

	s.publishRawEvent(r, eventID, "isbn:"+isbn, meta)
	writeJSON(w, http.StatusOK, scrapeResponse{
		Success: true,
		Message: "ISBN " + isbn + " scraped successfully",
		EventID: eventID,
	})
}

// publishRawEvent emits the scrape.raw event keyed by event id. Publish
// failures are logged and counted but do not fail the scrape: event loss is
// tolerable as long as it is observable.
func (s *ScrapeServer) publishRawEvent(r *http.Request, eventID, url string, meta ingest.Metadata) {
	event := ingest.ScrapeRawEvent{
		EventID:    eventID,
		URL:        url,
		SourceType: meta.SourceType,
		ScrapedAt:  s.clock.Now(),
		Metadata:   meta,
	}
	value, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal raw event failed", zap.String("event_id", eventID), zap.Error(err))
		return
	}
	if res := s.pub.Publish(r.Context(), s.rawTopic, eventID, value); !res.Published {
		s.logger.Error("publish raw event failed", zap.String("event_id", eventID), zap.Error(res.Err))
	}
}
