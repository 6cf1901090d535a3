// Package cache stores enriched products keyed by canonical source link.
// Entries never expire; the newest write for a key wins.
package cache

import (
	"context"
	"errors"

	"github.com/maltedev/wholesale-crawler/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) (models.EnrichedProduct, error)
	Set(ctx context.Context, key string, product models.EnrichedProduct) error
	Len(ctx context.Context) (int, error)
	Close() error
}

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)
