package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"listinghub/internal/cache"
	"listinghub/internal/config"
	"listinghub/internal/database"
	"listinghub/internal/log"
	"listinghub/internal/queue"
	"listinghub/internal/repository"
	"listinghub/internal/storage"
	"listinghub/internal/tasks"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		panic(err)
	}

	logger := log.NewWithLevel(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cache.FromWorker(cfg.Redis))
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres, "listinghub-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer dbPool.Close()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init upload storage")
	}

	processor := tasks.NewProcessor(store, repository.NewListingRepository(dbPool), cfg.Listings.PurgeExpired, logger)
	consumer := queue.NewConsumer(client, queue.ConsumerOptions{
		Stream:        cfg.Redis.Stream,
		Group:         cfg.Redis.Group,
		Name:          cfg.Redis.Consumer,
		ClaimInterval: cfg.Queues.ClaimInterval,
		MaxDeliveries: cfg.Queues.MaxDeliveries,
		BatchSize:     cfg.Queues.BatchSize,
	}, processor, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("consumer stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("consumer did not stop in time")
	}
}
