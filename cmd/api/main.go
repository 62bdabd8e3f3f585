package main

// @title ParkWhere API
// @version 1.0
// @description Nearby parking matching over an imported car park catalog with live availability.

// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/parkwhere/docs"
	"github.com/parkwhere/internal/config"
	httpDelivery "github.com/parkwhere/internal/delivery/http"
	"github.com/parkwhere/internal/delivery/http/handler"
	"github.com/parkwhere/internal/domain/repository"
	"github.com/parkwhere/internal/infrastructure/carparkapi"
	"github.com/parkwhere/internal/pkg/logger"
	"github.com/parkwhere/internal/repository/memory"
	redisRepo "github.com/parkwhere/internal/repository/redis"
	"github.com/parkwhere/internal/repository/sqldb"
	"github.com/parkwhere/internal/spatial"
	"github.com/parkwhere/internal/tracker"
	"github.com/parkwhere/internal/usecase"
	"github.com/parkwhere/internal/worker"
	"github.com/parkwhere/internal/worker/availability"
	"github.com/parkwhere/internal/worker/refresh"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting ParkWhere API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("store_driver", cfg.Store.Driver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Record store
	checks := map[string]handler.HealthCheck{}
	var store repository.SpotRepository
	if cfg.Store.Driver == "memory" {
		store = memory.NewSpotRepository()
		log.Warn("Using in-memory record store, the catalog is lost on restart")
	} else {
		db, err := sqldb.Open(ctx, cfg, log)
		if err != nil {
			log.Fatal("Failed to open record store", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close record store", zap.Error(err))
			}
		}()
		checks["store"] = db.Health
		store = sqldb.NewSpotRepository(db, log)
	}

	// 4. Core components
	index := spatial.NewIndex(cfg.Index.CellLevel)
	locationTracker := tracker.NewLocationTracker(tracker.Config{
		MaxAccuracyMeters:     cfg.Tracker.MaxAccuracyMeters,
		FreshnessWindow:       cfg.Tracker.FreshnessWindow,
		RetentionWindow:       cfg.Tracker.RetentionWindow,
		MinDisplacementMeters: cfg.Tracker.MinDisplacementMeters,
	}, logger.Component(log, "tracker"))

	coordinator := refresh.NewCoordinator(store, index, refresh.Config{
		Interval:        cfg.Refresh.Interval,
		ChangeThreshold: cfg.Refresh.ChangeThreshold,
		InitialBackoff:  cfg.Refresh.InitialBackoff,
		MaxBackoff:      cfg.Refresh.MaxBackoff,
	}, logger.Component(log, "refresh"))

	// 5. Use cases
	matchUC := usecase.NewMatchUseCase(store, index, locationTracker, usecase.MatchConfig{
		DefaultRadiusMeters: cfg.Match.DefaultRadiusMeters,
		MaxRadiusMeters:     cfg.Match.MaxRadiusMeters,
		DefaultLimit:        cfg.Match.DefaultLimit,
		MaxLimit:            cfg.Match.MaxLimit,
	}, logger.Component(log, "match"))
	parkingUC := usecase.NewParkingUseCase(store, index, coordinator, logger.Component(log, "parking"))
	importUC := usecase.NewImportUseCase(store, coordinator, logger.Component(log, "import"))
	statsUC := usecase.NewStatsUseCase(index, locationTracker, coordinator, log)

	// 6. Background workers
	workerManager := worker.NewWorkerManager(log, cfg.Worker.ShutdownTimeout)
	workerManager.Register(coordinator)

	var feedFetcher handler.AvailabilityFetcher
	if cfg.Feed.Enabled {
		poller := availability.NewFeedPoller(
			carparkapi.NewClient(&cfg.Feed, log),
			parkingUC,
			availability.PollerConfig{
				PollInterval: cfg.Feed.PollInterval,
				MinInterval:  cfg.Feed.MinInterval,
			},
			log,
		)
		workerManager.Register(poller)
		feedFetcher = poller
	}

	if cfg.Worker.StreamEnabled {
		redisClient, err := redisRepo.NewClient(&cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
		checks["redis"] = redisClient.Health

		streamRepo := redisRepo.NewStreamRepository(redisClient.Redis(), log, cfg.Worker.StreamReadTimeout)
		workerManager.Register(availability.NewStreamWorker(
			streamRepo,
			parkingUC,
			cfg.Worker.ConsumerGroup,
			cfg.Worker.BatchSize,
			log,
		))
	}

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}
	checks["workers"] = workerManager.Health

	// 7. HTTP server
	server := httpDelivery.NewServer(cfg, log, httpDelivery.Handlers{
		Parking:  handler.NewParkingHandler(matchUC, parkingUC, log),
		Location: handler.NewLocationHandler(locationTracker, log),
		Import:   handler.NewImportHandler(importUC, log),
		Refresh:  handler.NewRefreshHandler(coordinator, feedFetcher, statsUC, log),
		Health:   handler.NewHealthHandler(checks),
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 8. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	cancel()
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Server exited")
}
