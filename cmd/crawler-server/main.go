package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maltedev/wholesale-crawler/internal/api"
	"github.com/maltedev/wholesale-crawler/internal/browser"
	"github.com/maltedev/wholesale-crawler/internal/cache"
	"github.com/maltedev/wholesale-crawler/internal/config"
	"github.com/maltedev/wholesale-crawler/internal/crawler"
	"github.com/maltedev/wholesale-crawler/internal/database"
	"github.com/maltedev/wholesale-crawler/internal/domeggook"
	"github.com/maltedev/wholesale-crawler/internal/logger"
	"github.com/maltedev/wholesale-crawler/internal/ratelimit"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logging
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Detail cache
	detailCache, closeBackend, err := openCache(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open cache", "backend", cfg.Cache.Backend, "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	// Browser setup; the process launches on first use
	pool := newBrowserPool(cfg, log)
	adapter := domeggook.New(pool, timeouts(cfg.Crawler), log)

	svc := crawler.NewService(crawler.Config{
		Workers:          cfg.Crawler.Workers,
		PrefetchOnSearch: cfg.Crawler.PrefetchOnSearch,
		DefaultSites:     cfg.Crawler.Sites,
	}, detailCache, pool, log, adapter)
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error("failed to close crawler", "error", err)
		}
	}()

	handlers := api.NewHandlers(svc, log)
	router := api.NewRouter(handlers, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	// Start server
	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}()

	log.Info("server starting",
		"addr", server.Addr,
		"cache", cfg.Cache.Backend,
		"workers", cfg.Crawler.Workers,
		"headless", cfg.Browser.Headless)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func newBrowserPool(cfg *config.Config, log *slog.Logger) *browser.Pool {
	opts := &browser.Options{
		Headless:       cfg.Browser.Headless,
		ExecutablePath: cfg.Browser.ExecutablePath,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      cfg.Browser.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		Locale:         cfg.Browser.Locale,
		TimezoneID:     cfg.Browser.TimezoneID,
	}

	var limiter browser.Limiter
	if l := ratelimit.NewNavigationLimiter(cfg.Crawler.RateLimitRPS, cfg.Crawler.RateLimitBurst,
		cfg.Crawler.RateLimitMin, cfg.Crawler.RateLimitMax); l != nil {
		limiter = l
	}
	return browser.NewPool(opts, browser.LaunchPlaywright, limiter, log)
}

func timeouts(c config.CrawlerConfig) domeggook.Timeouts {
	return domeggook.Timeouts{
		Navigation: c.NavigationTimeout,
		Popup:      c.PopupTimeout,
		Selector:   c.SelectorTimeout,
		Results:    c.ResultsTimeout,
	}
}

// openCache returns the configured detail cache and a func releasing whatever
// connection backs it.
func openCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.Cache, func(), error) {
	noop := func() {}

	switch cfg.Cache.Backend {
	case cache.BackendRedis:
		client, err := cache.ConnectRedis(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, noop, err
		}
		log.Info("using redis cache", "addr", cfg.Redis.Addr, "hash", cfg.Cache.RedisKey)
		// the service closes the cache and with it the client
		return cache.NewRedisCache(client, cfg.Cache.RedisKey), noop, nil

	case cache.BackendPostgres:
		db, err := database.New(ctx, database.Config{
			URL:      cfg.Database.URL,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to database: %w", err)
		}
		pc, err := cache.NewPostgresCache(ctx, db)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		log.Info("using postgres cache", "host", cfg.Database.Host, "database", cfg.Database.Name)
		return pc, db.Close, nil

	case cache.BackendFile:
		fc, err := cache.NewFileCache(cfg.Cache.FilePath)
		if err != nil {
			return nil, noop, err
		}
		log.Info("using file cache", "path", cfg.Cache.FilePath)
		return fc, noop, nil

	default:
		return cache.NewMemoryCache(), noop, nil
	}
}
