// Command worker keeps availability current in a shared record store without
// serving HTTP. API processes pick the changes up on their next index refresh.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/parkwhere/internal/config"
	"github.com/parkwhere/internal/infrastructure/carparkapi"
	"github.com/parkwhere/internal/pkg/logger"
	redisRepo "github.com/parkwhere/internal/repository/redis"
	"github.com/parkwhere/internal/repository/sqldb"
	"github.com/parkwhere/internal/usecase"
	"github.com/parkwhere/internal/worker"
	"github.com/parkwhere/internal/worker/availability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Feed.Enabled && !cfg.Worker.StreamEnabled {
		fmt.Println("No availability source enabled. Set FEED_ENABLED=true or WORKER_STREAM_ENABLED=true.")
		os.Exit(0)
	}
	if cfg.Store.Driver == "memory" {
		fmt.Println("The worker needs a shared record store. Set STORE_DRIVER to sqlite or pgx.")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting availability worker")
	log.Info("Configuration loaded",
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("feed_enabled", cfg.Feed.Enabled),
		zap.Bool("stream_enabled", cfg.Worker.StreamEnabled),
		zap.String("consumer_group", cfg.Worker.ConsumerGroup))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sqldb.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open record store", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close record store", zap.Error(err))
		}
	}()

	store := sqldb.NewSpotRepository(db, log)
	// no index here: the API process rebuilds its own from the shared store
	parkingUC := usecase.NewParkingUseCase(store, nil, nil, logger.Component(log, "parking"))

	workerManager := worker.NewWorkerManager(log, cfg.Worker.ShutdownTimeout)

	if cfg.Feed.Enabled {
		workerManager.Register(availability.NewFeedPoller(
			carparkapi.NewClient(&cfg.Feed, log),
			parkingUC,
			availability.PollerConfig{
				PollInterval: cfg.Feed.PollInterval,
				MinInterval:  cfg.Feed.MinInterval,
			},
			log,
		))
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

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
