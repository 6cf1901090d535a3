package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/maltedev/wholesale-crawler/internal/models"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS crawler_detail_cache (
	cache_key  TEXT PRIMARY KEY,
	site       TEXT NOT NULL,
	product    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Querier is satisfied by *database.DB and *pgxpool.Pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type PostgresCache struct {
	db Querier
}

// NewPostgresCache creates the cache table if needed.
func NewPostgresCache(ctx context.Context, db Querier) (*PostgresCache, error) {
	if _, err := db.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &PostgresCache{db: db}, nil
}

func (c *PostgresCache) Get(ctx context.Context, key string) (models.EnrichedProduct, error) {
	var data []byte
	err := c.db.QueryRow(ctx,
		`SELECT product FROM crawler_detail_cache WHERE cache_key = $1`, key,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.EnrichedProduct{}, ErrCacheMiss
	}
	if err != nil {
		return models.EnrichedProduct{}, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var product models.EnrichedProduct
	if err := json.Unmarshal(data, &product); err != nil {
		return models.EnrichedProduct{}, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return product, nil
}

func (c *PostgresCache) Set(ctx context.Context, key string, product models.EnrichedProduct) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	_, err = c.db.Exec(ctx, `
		INSERT INTO crawler_detail_cache (cache_key, site, product, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (cache_key) DO UPDATE
		SET site = EXCLUDED.site, product = EXCLUDED.product, updated_at = NOW()`,
		key, product.Site, data)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *PostgresCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRow(ctx, `SELECT COUNT(*) FROM crawler_detail_cache`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close is a no-op; the pool belongs to the caller.
func (c *PostgresCache) Close() error {
	return nil
}
