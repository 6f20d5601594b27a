package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScrapesTotal tracks the number of successful scrapes.
	ScrapesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_scrapes_total",
		Help: "The total number of successful scrapes.",
	})
	// ScrapeErrors tracks the number of scrapes that failed to fetch or parse.
	ScrapeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_scrape_errors_total",
		Help: "The total number of failed scrapes.",
	})
	// PublishesTotal tracks the number of events accepted by the broker.
	PublishesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_publishes_total",
		Help: "The total number of events successfully published.",
	})
	// PublishFailures tracks publish attempts that were refused or failed in
	// transit. Event loss is tolerable but must be observable.
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_publish_failures_total",
		Help: "The total number of failed event publishes.",
	})
	// RecommendationQueries tracks recommendation requests by strategy.
	RecommendationQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_recommendation_queries_total",
		Help: "The total number of recommendation queries served.",
	}, []string{"strategy"})
)
