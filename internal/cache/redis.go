package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"listinghub/internal/config"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

func FromAPI(cfg config.RedisConfig) Options {
	return Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

func FromWorker(cfg config.WorkerRedisConfig) Options {
	return Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// NewRedisClient connects and pings; the task stream lives on this client.
func NewRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	return client, nil
}
