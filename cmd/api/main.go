package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carefinder/backend/internal/adapters/cache"
	"github.com/carefinder/backend/internal/adapters/livefeed"
	"github.com/carefinder/backend/internal/adapters/providers/places"
	"github.com/carefinder/backend/internal/api/handlers"
	"github.com/carefinder/backend/internal/api/routes"
	"github.com/carefinder/backend/internal/application/services"
	"github.com/carefinder/backend/internal/domain/providers"
	"github.com/carefinder/backend/internal/infrastructure/clients/redis"
	"github.com/carefinder/backend/internal/infrastructure/observability"
	"github.com/carefinder/backend/internal/matching"
	"github.com/carefinder/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var metrics *observability.Metrics
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			metrics, err = observability.InitMetrics()
			if err != nil {
				logger.Fatal().Err(err).Msg("failed to initialize metrics")
			}
			logger.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize Redis client; the application works without caching.
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize Redis client; continuing without cache")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		logger.Info().Msg("Redis client initialized successfully")
	}

	// Load the matching tables
	tables, err := matching.LoadTables(cfg.Matching.ConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Matching.ConfigPath).Msg("failed to load matching tables")
	}
	normalizer := matching.NewNormalizer(tables)
	classifier := matching.NewClassifier(tables)
	matcher := matching.NewMatcher(tables, normalizer)

	// Live feed: scraper behind a TTL snapshot cache
	scraper := livefeed.NewScraper(cfg.LiveFeed.URL, cfg.LiveFeed.FetchTimeout, normalizer)
	feedCache := livefeed.NewSnapshotCache(scraper, cfg.LiveFeed.TTL, metrics)

	// Place-search provider
	var placeProvider providers.PlaceSearchProvider
	switch cfg.Places.Provider {
	case "google":
		placeProvider = places.NewGooglePlacesProviderWithOptions(cfg.Places.APIKey, cacheProvider, metrics, cfg.Places.BaseURL, nil)
		logger.Info().Msg("using Google place-search provider")
	default:
		placeProvider = places.NewMockPlacesProvider()
		logger.Info().Msg("using mock place-search provider")
	}

	// Initialize services
	estimator := services.NewWaitEstimator()
	discoveryService := services.NewDiscoveryService(placeProvider, feedCache, matcher, classifier, estimator, metrics)
	recommendationService := services.NewRecommendationService(discoveryService)

	// Initialize handlers
	discoveryHandler := handlers.NewDiscoveryHandler(discoveryService)
	livefeedHandler := handlers.NewLiveFeedHandler(feedCache, matcher, estimator)
	recommendHandler := handlers.NewRecommendHandler(recommendationService)

	// Set up router
	router := routes.NewRouter(
		discoveryHandler,
		livefeedHandler,
		recommendHandler,
		metrics,
	)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server stopped")
}
