package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/api"
	"github.com/jafarshop/exactsync/internal/config"
	"github.com/jafarshop/exactsync/internal/exact"
	"github.com/jafarshop/exactsync/internal/faillog"
	"github.com/jafarshop/exactsync/internal/gate"
	"github.com/jafarshop/exactsync/internal/repository/postgres"
	"github.com/jafarshop/exactsync/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	// Reservation gate: Redis fast path over the durable store
	cache := gate.NewCache(cfg.Redis, logger)
	defer cache.Close()
	reservations := gate.NewGate(cache, repos.Reservation, logger)

	// ERP client and pipeline
	exactClient := exact.NewClient(cfg.Exact, exact.StaticTokenSource(cfg.Exact.AccessToken), logger)
	resolver := exact.NewResolver(exactClient, logger)
	addresses := exact.NewAddressClient(exactClient, logger)

	reconciler := service.NewReconciler(addresses, logger)
	composer := service.NewComposer(cfg.Exact, logger)
	failures := faillog.New(cfg.FailureLog)

	ingest := service.NewIngestService(
		reservations,
		resolver,
		reconciler,
		composer,
		failures,
		cfg.Exact.ShippingItemCode,
		logger,
	)

	router := api.NewRouter(cfg, repos, ingest, reservations, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}
