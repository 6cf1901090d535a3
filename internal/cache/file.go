package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/maltedev/wholesale-crawler/internal/models"
)

type fileEntry struct {
	Product   models.EnrichedProduct `json:"product"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// FileCache keeps entries in memory and rewrites a JSON file on every Set so
// enrichment survives restarts of the CLI.
type FileCache struct {
	mu       sync.RWMutex
	entries  map[string]*fileEntry
	filename string
}

func NewFileCache(filename string) (*FileCache, error) {
	if filename == "" {
		return nil, fmt.Errorf("cache file path is required")
	}
	fc := &FileCache{
		entries:  make(map[string]*fileEntry),
		filename: filename,
	}

	// Load existing data if file exists
	if err := fc.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load cache file: %w", err)
	}
	return fc, nil
}

func (fc *FileCache) Get(ctx context.Context, key string) (models.EnrichedProduct, error) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	entry, exists := fc.entries[key]
	if !exists {
		return models.EnrichedProduct{}, ErrCacheMiss
	}
	return entry.Product, nil
}

func (fc *FileCache) Set(ctx context.Context, key string, product models.EnrichedProduct) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.entries[key] = &fileEntry{Product: product, UpdatedAt: time.Now()}
	return fc.save()
}

func (fc *FileCache) Len(ctx context.Context) (int, error) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	return len(fc.entries), nil
}

func (fc *FileCache) Close() error {
	return nil
}

func (fc *FileCache) save() error {
	data, err := json.MarshalIndent(fc.entries, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first for atomicity
	tmpFile := fc.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpFile, fc.filename)
}

func (fc *FileCache) load() error {
	data, err := os.ReadFile(fc.filename)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &fc.entries)
}
