package cache

import (
	"context"
	"sync"

	"github.com/maltedev/wholesale-crawler/internal/models"
)

// MemoryCache is a process-local cache. It lives as long as the process.
type MemoryCache struct {
	data  map[string]models.EnrichedProduct
	mutex sync.RWMutex
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]models.EnrichedProduct),
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (models.EnrichedProduct, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	product, exists := c.data[key]
	if !exists {
		return models.EnrichedProduct{}, ErrCacheMiss
	}
	return product, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, product models.EnrichedProduct) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = product
	return nil
}

func (c *MemoryCache) Len(ctx context.Context) (int, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.data), nil
}

func (c *MemoryCache) Close() error {
	return nil
}
