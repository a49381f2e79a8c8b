package storage

import (
	"context"
	"fmt"
	"io"

	"listinghub/internal/config"
)

// Store keeps uploaded files addressed by a flat key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL is the public reference saved on the owning record.
	URL(key string) string
	// KeyFromURL reverses URL for references produced by this store.
	KeyFromURL(url string) (string, bool)
}

func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.StorageDriverLocal, "":
		return NewLocalStore(cfg.LocalDir, cfg.PublicPrefix)
	case config.StorageDriverS3:
		store, err := NewObjectStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
