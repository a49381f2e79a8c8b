package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"listinghub/internal/cache"
	"listinghub/internal/config"
	"listinghub/internal/database"
	"listinghub/internal/handlers"
	"listinghub/internal/jobs"
	"listinghub/internal/log"
	"listinghub/internal/queue"
	"listinghub/internal/repository"
	"listinghub/internal/server"
	"listinghub/internal/service"
	"listinghub/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres, "listinghub-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cache.FromAPI(cfg.Redis))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to init upload storage")
	}

	publisher := queue.NewPublisher(redisClient, cfg.Redis.Stream, cfg.Redis.StreamMaxLen)

	users := repository.NewUserRepository(dbPool)
	listings := repository.NewListingRepository(dbPool)
	uploads := service.NewUploadService(store, publisher, cfg.Storage, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, handlers.Services{
		Users:    service.NewUserService(users, uploads, cfg.Security, logger),
		Listings: service.NewListingService(listings, users, cfg.Listings, logger),
		Admin:    service.NewAdminService(listings, users, cfg.Listings, logger),
		Uploads:  uploads,
	},
		handlers.HealthCheck{Name: "postgres", Ping: dbPool.Ping},
		handlers.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
	)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(publisher, cfg.Jobs.ExpirySweep, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
