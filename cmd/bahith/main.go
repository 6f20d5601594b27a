// Package main runs the bahith scraper/ingestion service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/baytalhikmah/pipeline/internal/api"
	"github.com/baytalhikmah/pipeline/internal/clock/system"
	"github.com/baytalhikmah/pipeline/internal/config"
	collyfetcher "github.com/baytalhikmah/pipeline/internal/fetcher/colly"
	"github.com/baytalhikmah/pipeline/internal/id/uuid"
	"github.com/baytalhikmah/pipeline/internal/ingest"
	"github.com/baytalhikmah/pipeline/internal/logging"
	pubsubpublisher "github.com/baytalhikmah/pipeline/internal/publisher/pubsub"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New("bahith", cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting bahith scraper service")

	pub := pubsubpublisher.New(pubsubpublisher.Config{
		ProjectID: cfg.PubSub.ProjectID,
		Endpoint:  cfg.PubSub.Endpoint,
	}, logger)
	if err := pub.Start(ctx); err != nil {
		logger.Error("publisher start failed; service is degraded", zap.Error(err))
	}

	newScraper := func() *ingest.Scraper {
		fetcher := collyfetcher.New(collyfetcher.Config{
			UserAgent:  cfg.Scraper.UserAgent,
			Timeout:    cfg.ScrapeTimeout(),
			MaxRetries: cfg.Scraper.MaxRetries,
		})
		return ingest.NewScraper(fetcher, logger, ingest.WithISBNLookupURL(cfg.Scraper.ISBNLookupURL))
	}

	server := api.NewScrapeServer(newScraper, pub, uuid.New(), system.New(), cfg.PubSub.TopicScrapeRaw, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.ScrapePort),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("bahith service started", zap.Int("port", cfg.Server.ScrapePort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down bahith service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	if err := pub.Stop(shutdownCtx); err != nil {
		logger.Error("publisher stop failed", zap.Error(err))
	}
	logger.Info("bahith service stopped")
}
