package crawler

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/maltedev/wholesale-crawler/internal/browser"
	"github.com/maltedev/wholesale-crawler/internal/cache"
	"github.com/maltedev/wholesale-crawler/internal/models"
)

const DefaultPrefetchWorkers = 3

// Enricher upgrades a single candidate.
type Enricher interface {
	Enrich(ctx context.Context, c models.SearchCandidate) (models.EnrichedProduct, error)
}

// Prefetcher enriches the active ResultSet in the background. Starting a new
// run supersedes the previous one: its workers notice the identity change at
// their next checkpoint and stop. In-flight fetches are not cancelled.
type Prefetcher struct {
	enricher Enricher
	cache    cache.Cache
	workers  int
	logger   *slog.Logger

	active atomic.Pointer[ResultSet]
	wg     sync.WaitGroup

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	fetches     atomic.Int64
	cacheHits   atomic.Int64
}

func NewPrefetcher(enricher Enricher, c cache.Cache, workers int, logger *slog.Logger) *Prefetcher {
	if workers < 1 {
		workers = DefaultPrefetchWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prefetcher{
		enricher: enricher,
		cache:    c,
		workers:  workers,
		logger:   logger.With("component", "prefetch"),
	}
}

// Activate makes rs the active set without starting workers.
func (p *Prefetcher) Activate(rs *ResultSet) {
	p.active.Store(rs)
}

func (p *Prefetcher) Active() *ResultSet {
	return p.active.Load()
}

// Prefetch activates rs and starts min(workers, rs.Len()) workers on it. The
// returned channel closes when this run's workers have all exited.
func (p *Prefetcher) Prefetch(ctx context.Context, rs *ResultSet) <-chan struct{} {
	p.Activate(rs)

	done := make(chan struct{})
	n := min(p.workers, rs.Len())
	if n == 0 {
		close(done)
		return done
	}

	p.logger.Info("prefetch started", "result_set", rs.ID, "items", rs.Len(), "workers", n)

	var (
		cursor atomic.Int64
		run    sync.WaitGroup
	)
	for w := 0; w < n; w++ {
		run.Add(1)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			defer run.Done()
			p.work(ctx, rs, &cursor)
		}()
	}

	go func() {
		run.Wait()
		p.logger.Info("prefetch finished",
			"result_set", rs.ID,
			"enriched", rs.EnrichedCount(),
			"superseded", p.active.Load() != rs)
		close(done)
	}()
	return done
}

// Wait blocks until every run started so far has finished.
func (p *Prefetcher) Wait() {
	p.wg.Wait()
}

func (p *Prefetcher) MaxInFlight() int64 { return p.maxInFlight.Load() }
func (p *Prefetcher) Fetches() int64     { return p.fetches.Load() }
func (p *Prefetcher) CacheHits() int64   { return p.cacheHits.Load() }

func (p *Prefetcher) work(ctx context.Context, rs *ResultSet, cursor *atomic.Int64) {
	for {
		if p.active.Load() != rs || ctx.Err() != nil {
			return
		}
		i := int(cursor.Add(1)) - 1
		if i >= rs.Len() {
			return
		}

		rec := rs.At(i)
		if rec.IsEnriched() {
			continue
		}
		c := rec.Base()
		if strings.TrimSpace(c.SourceURL) == "" {
			continue
		}

		key := c.Key()
		cached, err := p.cache.Get(ctx, key)
		if err == nil {
			p.cacheHits.Add(1)
			rs.upgrade(i, cached)
			continue
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.Warn("cache lookup failed", "key", key, "error", err)
		}

		product, err := p.fetch(ctx, c)
		if err != nil {
			if browser.IsLaunchError(err) {
				p.logger.Error("prefetch aborted, browser unavailable", "result_set", rs.ID, "error", err)
				return
			}
			p.logger.Warn("prefetch enrichment failed", "url", c.SourceURL, "error", err)
			continue
		}

		if err := p.cache.Set(ctx, key, product); err != nil {
			p.logger.Warn("cache store failed", "key", key, "error", err)
		}
		if p.active.Load() != rs {
			return
		}
		rs.upgrade(i, product)
	}
}

func (p *Prefetcher) fetch(ctx context.Context, c models.SearchCandidate) (models.EnrichedProduct, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.maxInFlight.Load()
		if n <= peak || p.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	p.fetches.Add(1)
	return p.enricher.Enrich(ctx, c)
}
