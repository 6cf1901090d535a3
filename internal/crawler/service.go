// Package crawler ties site adapters, the enrichment cache and background
// prefetch together behind one service.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/wholesale-crawler/internal/browser"
	"github.com/maltedev/wholesale-crawler/internal/cache"
	"github.com/maltedev/wholesale-crawler/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSite     = "domeggook"
	DefaultMaxPrice = 1000000
)

var (
	ErrUnsupportedSite   = errors.New("unsupported site")
	ErrInvalidPriceRange = errors.New("invalid price range")
)

// SiteAdapter is everything the service needs from one marketplace.
type SiteAdapter interface {
	Name() string
	Search(ctx context.Context, q models.SearchQuery) ([]models.SearchCandidate, error)
	Enrich(ctx context.Context, c models.SearchCandidate) (models.EnrichedProduct, error)
}

// BrowserPool is the part of browser.Pool the service manages.
type BrowserPool interface {
	Active() bool
	Release() error
}

type Config struct {
	// Workers bounds both prefetch and batch enrichment concurrency.
	Workers int
	// PrefetchOnSearch starts background enrichment after each search unless
	// the request overrides it.
	PrefetchOnSearch bool
	DefaultSites     []string
}

// SearchRequest is one search call. A nil MaxPrice means DefaultMaxPrice; an
// explicit zero is a real bound.
type SearchRequest struct {
	Keyword  string   `json:"keyword"`
	MinPrice int      `json:"minPrice"`
	MaxPrice *int     `json:"maxPrice,omitempty"`
	Sites    []string `json:"sites,omitempty"`
	Prefetch *bool    `json:"prefetch,omitempty"`
}

// Validate rejects a price window that no product can satisfy.
func (r SearchRequest) Validate() error {
	q := normalizeQuery(r)
	if q.MaxPrice < 0 {
		return fmt.Errorf("%w: maxPrice %d is negative", ErrInvalidPriceRange, q.MaxPrice)
	}
	if q.MinPrice > q.MaxPrice {
		return fmt.Errorf("%w: minPrice %d exceeds maxPrice %d", ErrInvalidPriceRange, q.MinPrice, q.MaxPrice)
	}
	return nil
}

type SearchResult struct {
	SearchID string                   `json:"searchId"`
	Products []models.SearchCandidate `json:"products"`
	Errors   []string                 `json:"errors"`
	Duration int64                    `json:"duration"`
}

type Service struct {
	cfg      Config
	adapters map[string]SiteAdapter
	cache    cache.Cache
	pool     BrowserPool
	prefetch *Prefetcher
	logger   *slog.Logger

	// background work outlives the request that started it
	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewService(cfg Config, c cache.Cache, pool BrowserPool, logger *slog.Logger, adapters ...SiteAdapter) *Service {
	if cfg.Workers < 1 {
		cfg.Workers = DefaultPrefetchWorkers
	}
	if len(cfg.DefaultSites) == 0 {
		cfg.DefaultSites = []string{DefaultSite}
	}
	if c == nil {
		c = cache.NewMemoryCache()
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry := make(map[string]SiteAdapter, len(adapters))
	for _, a := range adapters {
		registry[a.Name()] = a
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		cfg:      cfg,
		adapters: registry,
		cache:    c,
		pool:     pool,
		logger:   logger.With("component", "crawler"),
		baseCtx:  ctx,
		cancel:   cancel,
	}
	s.prefetch = NewPrefetcher(siteRouter(registry), c, cfg.Workers, logger)
	return s
}

func (s *Service) Prefetcher() *Prefetcher {
	return s.prefetch
}

func (s *Service) Cache() cache.Cache {
	return s.cache
}

func (s *Service) CacheEntries(ctx context.Context) (int, error) {
	return s.cache.Len(ctx)
}

func (s *Service) BrowserActive() bool {
	return s.pool != nil && s.pool.Active()
}

// Search fans out to the requested sites concurrently and returns products
// in site order. Per-site failures become entries in Errors; only a browser
// launch failure fails the call.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return SearchResult{}, err
	}
	q := normalizeQuery(req)

	sites := req.Sites
	if len(sites) == 0 {
		sites = s.cfg.DefaultSites
	}

	perSite := make([][]models.SearchCandidate, len(sites))
	siteErrs := make([]string, len(sites))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range sites {
		adapter, ok := s.adapters[name]
		if !ok {
			siteErrs[i] = fmt.Sprintf("%s: %v", name, ErrUnsupportedSite)
			continue
		}
		g.Go(func() error {
			products, err := adapter.Search(gctx, q)
			if err != nil {
				if browser.IsLaunchError(err) {
					return err
				}
				siteErrs[i] = fmt.Sprintf("%s: %v", name, err)
			}
			perSite[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("search aborted", "keyword", q.Keyword, "error", err)
		return SearchResult{}, err
	}

	result := SearchResult{
		SearchID: uuid.NewString(),
		Products: []models.SearchCandidate{},
		Errors:   []string{},
	}
	for i := range sites {
		result.Products = append(result.Products, perSite[i]...)
		if siteErrs[i] != "" {
			result.Errors = append(result.Errors, siteErrs[i])
		}
	}
	result.Duration = time.Since(start).Milliseconds()

	rs := NewResultSet(result.SearchID, q, result.Products)
	prefetch := s.cfg.PrefetchOnSearch
	if req.Prefetch != nil {
		prefetch = *req.Prefetch
	}
	if prefetch {
		s.prefetch.Prefetch(s.baseCtx, rs)
	} else {
		s.prefetch.Activate(rs)
	}

	s.logger.Info("search completed",
		"search_id", result.SearchID,
		"keyword", q.Keyword,
		"products", len(result.Products),
		"errors", len(result.Errors),
		"duration_ms", result.Duration,
		"prefetch", prefetch)
	return result, nil
}

// Enrich returns the cached product for c when one exists, otherwise visits
// the detail page and caches the result. Enrichment failures other than a
// browser launch failure yield the candidate with defaults and no error.
func (s *Service) Enrich(ctx context.Context, c models.SearchCandidate) (models.EnrichedProduct, error) {
	if c.Site == "" {
		c.Site = DefaultSite
	}
	if strings.TrimSpace(c.SourceURL) == "" {
		return models.Upgrade(c), nil
	}

	adapter, ok := s.adapters[c.Site]
	if !ok {
		return models.Upgrade(c), fmt.Errorf("%w: %s", ErrUnsupportedSite, c.Site)
	}

	key := c.Key()
	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		s.logger.Debug("detail cache hit", "key", key)
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("cache lookup failed", "key", key, "error", err)
	}

	product, err := adapter.Enrich(ctx, c)
	if err != nil {
		if browser.IsLaunchError(err) {
			return product, err
		}
		s.logger.Warn("detail enrichment failed", "url", c.SourceURL, "error", err)
		return product, nil
	}

	if err := s.cache.Set(ctx, key, product); err != nil {
		s.logger.Warn("cache store failed", "key", key, "error", err)
	}
	return product, nil
}

// EnrichBatch upgrades the first limit products and returns the rest
// untouched. A non-positive limit means all of them.
func (s *Service) EnrichBatch(ctx context.Context, products []models.SearchCandidate, site string, limit int) ([]models.Record, error) {
	if limit <= 0 || limit > len(products) {
		limit = len(products)
	}
	if site == "" {
		site = DefaultSite
	}

	out := make([]models.Record, len(products))
	for i := limit; i < len(products); i++ {
		out[i] = models.CandidateRecord(products[i])
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := 0; i < limit; i++ {
		c := products[i]
		if c.Site == "" {
			c.Site = site
		}
		g.Go(func() error {
			product, err := s.Enrich(gctx, c)
			if err != nil {
				if browser.IsLaunchError(err) {
					return err
				}
				s.logger.Warn("batch item left unenriched", "url", c.SourceURL, "error", err)
				out[i] = models.CandidateRecord(products[i])
				return nil
			}
			out[i] = models.EnrichedRecord(product)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveResults snapshots the result set of the latest search, or nil.
func (s *Service) ActiveResults() *ResultSetSnapshot {
	rs := s.prefetch.Active()
	if rs == nil {
		return nil
	}
	return &ResultSetSnapshot{
		SearchID:  rs.ID,
		Keyword:   rs.Query.Keyword,
		CreatedAt: rs.CreatedAt,
		Enriched:  rs.EnrichedCount(),
		Products:  rs.Snapshot(),
	}
}

type ResultSetSnapshot struct {
	SearchID  string          `json:"searchId"`
	Keyword   string          `json:"keyword"`
	CreatedAt time.Time       `json:"createdAt"`
	Enriched  int             `json:"enriched"`
	Products  []models.Record `json:"products"`
}

// Close stops background prefetch, waits for it, and releases the browser.
func (s *Service) Close() error {
	s.cancel()
	s.prefetch.Wait()

	var errs []error
	if s.pool != nil {
		if err := s.pool.Release(); err != nil {
			errs = append(errs, fmt.Errorf("failed to release browser: %w", err))
		}
	}
	if err := s.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
	}
	return errors.Join(errs...)
}

func normalizeQuery(req SearchRequest) models.SearchQuery {
	q := models.SearchQuery{
		Keyword:  strings.TrimSpace(req.Keyword),
		MinPrice: req.MinPrice,
		MaxPrice: DefaultMaxPrice,
		Sites:    req.Sites,
	}
	if q.MinPrice < 0 {
		q.MinPrice = 0
	}
	if req.MaxPrice != nil {
		q.MaxPrice = *req.MaxPrice
	}
	return q
}

// siteRouter dispatches enrichment by candidate site without caching; the
// prefetcher does its own cache checks.
type siteRouter map[string]SiteAdapter

func (r siteRouter) Enrich(ctx context.Context, c models.SearchCandidate) (models.EnrichedProduct, error) {
	site := c.Site
	if site == "" {
		site = DefaultSite
	}
	adapter, ok := r[site]
	if !ok {
		return models.Upgrade(c), fmt.Errorf("%w: %s", ErrUnsupportedSite, site)
	}
	return adapter.Enrich(ctx, c)
}
