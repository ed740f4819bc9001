package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_api/internal/cache"
	"github.com/GTDGit/catalog_api/internal/config"
	"github.com/GTDGit/catalog_api/internal/database"
	"github.com/GTDGit/catalog_api/internal/handler"
	"github.com/GTDGit/catalog_api/internal/middleware"
	"github.com/GTDGit/catalog_api/internal/repository"
	"github.com/GTDGit/catalog_api/internal/service"
	"github.com/GTDGit/catalog_api/internal/sse"
	"github.com/GTDGit/catalog_api/internal/worker"
	"github.com/GTDGit/catalog_api/pkg/marketplace"
)

// main is the application entrypoint for the catalog API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting catalog api")

	// 3. Context for startup and graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Connect database
	db, err := database.Connect(ctx, &cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 4a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 5. Cache store: Redis shares resolutions and locks across instances
	store, err := newStore(cfg)
	if err != nil {
		log.Error().Err(err).Msg("cache connection failed")
		fmt.Fprintf(os.Stderr, "cache connection failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info().Str("driver", cfg.Cache.Driver).Msg("cache store ready")

	// 6. Marketplace backend client
	backend := marketplace.NewClient(marketplace.Config{
		BaseURL:   cfg.Backend.BaseURL,
		APIKey:    cfg.Backend.APIKey,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.RateLimit,
		Burst:     cfg.Backend.RateBurst,
		Debug:     !cfg.IsProduction(),
	})

	// 7. Initialize repositories
	mutationRepo := repository.NewMutationLogRepository(db)
	healthRepo := repository.NewSourceHealthRepository(db)

	// 7a. SSE hub for vendor dashboards
	sseHub := sse.NewHub()

	// 8. Initialize services. Adapter order is resolution priority.
	adapters := []service.SourceAdapter{
		service.NewGoodsAdapter(backend),
		service.NewServiceAdapter(backend),
		service.NewExternalAdapter(),
	}
	normalizer := service.NewNormalizer(service.NormalizerConfig{
		PlaceholderImage: cfg.Catalog.PlaceholderImage,
		CurrencySymbol:   cfg.Catalog.CurrencySymbol,
	}, adapters...)
	resolver := service.NewListingResolver(
		cache.NewResolutionCache(store, cfg.Cache.ResolveTTL),
		healthRepo,
		adapters...,
	)
	projector := service.NewStatusProjector(
		normalizer,
		cache.NewMutationLock(store, cfg.Cache.MutationLockTTL),
		sse.NewBroadcastRecorder(mutationRepo, sseHub),
		adapters...,
	)
	related := service.NewRelatedService(normalizer, cfg.Catalog.RelatedLimit, adapters...)
	listingSvc := service.NewListingService(resolver, normalizer, projector, related, mutationRepo, healthRepo, adapters...)

	// 9. Initialize handlers
	handlers := &Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Check{
			"backend":  backend.Ping,
			"database": db.PingContext,
			"cache":    store.Ping,
		}),
		Listing:       handler.NewListingHandler(listingSvc),
		VendorListing: handler.NewVendorListingHandler(listingSvc),
		Search:        handler.NewSearchHandler(listingSvc),
		SSE:           handler.NewSSEHandler(sseHub, cfg.JWTSecret),
	}

	// 10. Initialize middleware
	authLimiter := middleware.NewInvalidAuthRateLimiter(5, time.Minute)
	defer authLimiter.Stop()
	jwtMw := middleware.NewJWTMiddleware(cfg.JWTSecret, authLimiter)

	// 11. Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedHosts))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 12. Start workers
	go worker.NewSourceHealthWorker(healthRepo, backend, cfg.Worker.ProbeHealthInterval).Start(ctx)

	// 13. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 14. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 15. Cancel context to stop workers
	cancel()

	// 16. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health        *handler.HealthHandler
	Listing       *handler.ListingHandler
	VendorListing *handler.VendorListingHandler
	Search        *handler.SearchHandler
	SSE           *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Public listing pages
	v1 := router.Group("/v1")
	{
		v1.GET("/listing/:slug", handlers.Listing.GetListing)
		v1.GET("/listing/id/:id", handlers.Listing.GetListing)
		v1.GET("/goods/:slug", handlers.Listing.GetListing)
		v1.GET("/service/:slug", handlers.Listing.GetListing)

		v1.GET("/listings/:kind/:id/related", handlers.Listing.GetRelated)
		v1.GET("/listings/:kind/:id/reviews", handlers.Listing.GetReviews)
		v1.POST("/listings/:kind/:id/reviews/preview", handlers.Listing.PreviewRating)

		// Conversational search hands over third-party hits for normalization
		v1.POST("/search/normalize", handlers.Search.Normalize)
	}

	// Vendor event stream authenticates via query token
	router.GET("/v1/vendor/events", handlers.SSE.Stream)

	// Vendor dashboard (JWT)
	vendor := router.Group("/v1/vendor")
	vendor.Use(jwtMiddleware.Handle())
	{
		vendor.GET("/listings/:kind", handlers.VendorListing.ListListings)
		vendor.PATCH("/listings/:kind/:id/status/toggle", handlers.VendorListing.ToggleStatus)
		vendor.DELETE("/listings/:kind/:id", handlers.VendorListing.DeleteListing)
		vendor.GET("/listings/:kind/:id/mutations", handlers.VendorListing.GetMutationLog)
		vendor.GET("/sources/health", handlers.VendorListing.GetSourceHealth)
	}
}

// newStore returns the cache store selected by CACHE_DRIVER.
func newStore(cfg *config.Config) (cache.Store, error) {
	if cfg.Cache.Driver == config.CacheDriverMemory {
		return cache.NewMemoryStore(time.Minute), nil
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
