// Package app wires the configuration, collaborators, pipeline and HTTP
// server together and runs them until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tech2news/technews/internal/api"
	"github.com/tech2news/technews/internal/config"
	"github.com/tech2news/technews/internal/feedcache"
	"github.com/tech2news/technews/internal/gemini"
	"github.com/tech2news/technews/internal/images"
	"github.com/tech2news/technews/internal/logger"
	"github.com/tech2news/technews/internal/metrics"
	"github.com/tech2news/technews/internal/pipeline"
	"github.com/tech2news/technews/internal/quota"
	"github.com/tech2news/technews/internal/retry"
	"github.com/tech2news/technews/internal/rss"
	"github.com/tech2news/technews/internal/scraper"
	"github.com/tech2news/technews/internal/storage"
	"github.com/tech2news/technews/internal/videos"
)

// Run starts the ingestion pipeline and the API server, blocking until an
// interrupt or terminate signal.
func Run() error {
	// Missing .env is fine in production, variables come from the host.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Init()

	sources, err := rss.LoadSources(cfg.FeedsConfigPath)
	if err != nil {
		return fmt.Errorf("rss sources: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewFeedStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("feed store: %w", err)
	}
	defer store.Close()

	gen, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	defer gen.Close()

	m := metrics.New()
	pipe := pipeline.New(
		pipeline.Config{
			MinConfidence: cfg.MinConfidence,
			Language:      cfg.DefaultLanguage,
			Retry: retry.Config{
				MaxAttempts: cfg.RetryAttempts,
				Delay:       cfg.RetryDelay,
				Backoff:     true,
			},
		},
		sources,
		rss.NewFetcher(cfg.RequestTimeout),
		images.NewResolver(cfg.UnsplashAccessKey),
		videos.NewResolver(videos.NewSearchClient(cfg.YouTubeAPIKey), quota.New(cfg.VideoDailyQuota)),
		gen,
		store,
		feedcache.New(store),
		m,
	)
	pipe.SetScraper(scraper.New())

	handler := api.NewHandler(pipe, store, m, cfg.Languages, cfg.DefaultLanguage, cfg.RequestTimeout)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go pipe.Run(ctx, cfg.UpdateInterval)

	// First cycle right away instead of waiting a full interval.
	go func() {
		if err := pipe.UpdateFeed(ctx); err != nil {
			logger.Error("initial feed update failed", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
