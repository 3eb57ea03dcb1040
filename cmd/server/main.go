package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codyseavey/sneaker-tracker/internal/api"
	"github.com/codyseavey/sneaker-tracker/internal/config"
	"github.com/codyseavey/sneaker-tracker/internal/database"
	"github.com/codyseavey/sneaker-tracker/internal/logging"
	"github.com/codyseavey/sneaker-tracker/internal/services"
	"github.com/codyseavey/sneaker-tracker/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	if logging.ParseLevel(cfg.LogLevel) != zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	if err := database.Initialize(cfg.DBPath, cfg.DBLogLevel); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Writes go straight to the store; engine reads share one rate limit
	gormStore := store.NewGormStore(database.GetDB())
	fetcher := store.NewLimitedFetcher(gormStore, cfg.FetchRateLimit, cfg.FetchBurst, cfg.FetchTimeout)

	collectionService, err := services.NewCollectionService(gormStore, fetcher, cfg.RuleCacheSize, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize collection service")
	}
	portfolioService := services.NewPortfolioService(fetcher, collectionService, cfg.TopPerformers, logger)
	valuationWorker := services.NewValuationWorker(gormStore, portfolioService, cfg.ValuationInterval, logger)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start valuation worker in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error().Interface("panic", r).Msg("PANIC in valuation worker - restarting in 30 seconds")
					}
				}()
				valuationWorker.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return
			case <-time.After(30 * time.Second):
				logger.Warn().Msg("Valuation worker restarting after panic recovery...")
			}
		}
	}()

	router := api.SetupRouter(cfg, api.Deps{
		Store:       gormStore,
		Collections: collectionService,
		Portfolio:   portfolioService,
		Valuation:   valuationWorker,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutting down server...")

	// Stop the valuation worker
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
