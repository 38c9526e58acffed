package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/catalogrank/backend/config"
	httpDelivery "github.com/catalogrank/backend/internal/delivery/http"
	"github.com/catalogrank/backend/internal/domain"
	"github.com/catalogrank/backend/internal/infrastructure/cache"
	"github.com/catalogrank/backend/internal/infrastructure/catalog"
	"github.com/catalogrank/backend/internal/infrastructure/logging"
	"github.com/catalogrank/backend/internal/infrastructure/similarity"
	"github.com/catalogrank/backend/internal/usecase"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting CatalogRank backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the catalog once; a failed load keeps the server up and answers 503
	loader := catalog.NewLoader(catalog.Config{
		Path:        cfg.Catalog.Path,
		SearchPaths: cfg.Catalog.SearchPaths,
	}, logger)
	products, err := loader.Load(ctx)
	if err != nil {
		logger.Warn("catalog unavailable, serving without data", zap.Error(err))
	}

	// Initialize infrastructure dependencies
	cacheRepo, closeCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		logger.Fatal("failed to initialize cache", zap.Error(err))
	}
	defer func() {
		if err := closeCache.Close(); err != nil {
			logger.Warn("cache close failed", zap.Error(err))
		}
	}()

	var backend domain.SimilarityBackend
	if cfg.Similarity.Enabled {
		backend = similarity.NewClient(similarity.Config{
			BaseURL:           cfg.Similarity.BaseURL,
			APIKey:            cfg.Similarity.APIKey,
			Namespace:         cfg.Similarity.Namespace,
			Timeout:           cfg.Similarity.Timeout,
			RequestsPerSecond: cfg.Similarity.RequestsPerSecond,
		}, logger)
		logger.Info("similarity backfill enabled",
			zap.String("base_url", cfg.Similarity.BaseURL),
			zap.String("index", cfg.Similarity.Index),
			zap.String("namespace", cfg.Similarity.Namespace),
		)
	}

	// Initialize usecase layer
	recommender := usecase.NewRecommendationService(backend, cacheRepo, usecase.RecommendationConfig{
		ScoreSaturation:    cfg.Recommend.ScoreSaturation,
		SimilarityCacheTTL: cfg.Cache.TTL,
	}, logger)
	analyzer := usecase.NewAnalyticsService(logger)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(products, recommender, analyzer, httpDelivery.HandlerConfig{
		DefaultTopK:          cfg.Recommend.DefaultTopK,
		DefaultBins:          cfg.Analytics.DefaultBins,
		DefaultLimit:         cfg.Analytics.DefaultLimit,
		DefaultCategoryLimit: cfg.Analytics.DefaultCategoryLimit,
	}, logger)

	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newCache builds the configured cache backend and its closer
func newCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, io.Closer, error) {
	if cfg.Type == "redis" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.RedisURL})
		if err != nil {
			return nil, nil, err
		}
		return rc, rc, nil
	}

	mc, err := cache.NewMemoryCache(cache.MemoryConfig{MaxEntries: cfg.MaxEntries})
	if err != nil {
		return nil, nil, err
	}
	return mc, mc, nil
}
