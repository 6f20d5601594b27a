// Package main runs the murshid recommendation service.
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
	"github.com/baytalhikmah/pipeline/internal/config"
	"github.com/baytalhikmah/pipeline/internal/embedding"
	"github.com/baytalhikmah/pipeline/internal/logging"
	"github.com/baytalhikmah/pipeline/internal/recommend"
	"github.com/baytalhikmah/pipeline/internal/recommend/storage"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New("murshid", cfg.Logging.Development)
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

	logger.Info("starting murshid recommendation service",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimension", cfg.Embedding.Dimension))

	var embedder embedding.Service
	if cfg.Embedding.Endpoint != "" {
		embedder = embedding.NewModelRunner(embedding.ModelRunnerConfig{
			BaseURL:   cfg.Embedding.Endpoint,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
		}, logger)
	} else {
		embedder = embedding.NewHashing(cfg.Embedding.Dimension, logger)
	}

	opts := []recommend.Option{}
	if cfg.DB.DSN != "" {
		store, err := storage.NewPostgresStore(ctx, storage.PostgresConfig{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.SourcesTable,
			MaxConns: int32(cfg.DB.MaxOpenConns),
		})
		if err != nil {
			logger.Error("postgres store init failed", zap.Error(err))
			os.Exit(1)
		}
		defer store.Close()
		opts = append(opts, recommend.WithStore(store))
	}

	engine := recommend.NewEngine(embedder, logger, opts...)
	if cfg.DB.DSN != "" {
		if err := engine.Restore(ctx); err != nil {
			logger.Error("restore sources failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("restored sources from storage", zap.Int("count", engine.Len()))
	}

	server := api.NewRecommendServer(engine, embedder, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.RecommendPort),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("murshid service started", zap.Int("port", cfg.Server.RecommendPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down murshid service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	logger.Info("murshid service stopped")
}
