package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/wholesale-crawler/internal/browser"
	"github.com/maltedev/wholesale-crawler/internal/cache"
	"github.com/maltedev/wholesale-crawler/internal/config"
	"github.com/maltedev/wholesale-crawler/internal/crawler"
	"github.com/maltedev/wholesale-crawler/internal/domeggook"
	"github.com/maltedev/wholesale-crawler/internal/logger"
	"github.com/maltedev/wholesale-crawler/internal/ratelimit"
)

func main() {
	var (
		keyword    = flag.String("keyword", "", "Search keyword")
		minPrice   = flag.Int("min", 0, "Minimum price in won")
		maxPrice   = flag.Int("max", crawler.DefaultMaxPrice, "Maximum price in won")
		enrich     = flag.Int("enrich", 0, "Enrich the first N results from their detail pages (-1 for all)")
		headless   = flag.Bool("headless", true, "Run browser in headless mode")
		cacheFile  = flag.String("cache", "", "Detail cache file (optional)")
		outputFile = flag.String("output", "", "Output JSON file (default stdout)")
	)
	flag.Parse()

	if *keyword == "" {
		fmt.Println("Please provide a search keyword with -keyword")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting wholesale search", "keyword", *keyword)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	browserOpts := &browser.Options{
		Headless:       *headless && cfg.Browser.Headless,
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
	pool := browser.NewPool(browserOpts, browser.LaunchPlaywright, limiter, logger)

	var detailCache cache.Cache = cache.NewMemoryCache()
	if *cacheFile != "" {
		fc, err := cache.NewFileCache(*cacheFile)
		if err != nil {
			log.Fatalf("Failed to open cache: %v", err)
		}
		detailCache = fc
	}

	adapter := domeggook.New(pool, domeggook.Timeouts{
		Navigation: cfg.Crawler.NavigationTimeout,
		Popup:      cfg.Crawler.PopupTimeout,
		Selector:   cfg.Crawler.SelectorTimeout,
		Results:    cfg.Crawler.ResultsTimeout,
	}, logger)
	svc := crawler.NewService(crawler.Config{Workers: cfg.Crawler.Workers}, detailCache, pool, logger, adapter)
	defer svc.Close()

	noPrefetch := false
	result, err := svc.Search(ctx, crawler.SearchRequest{
		Keyword:  *keyword,
		MinPrice: *minPrice,
		MaxPrice: maxPrice,
		Prefetch: &noPrefetch,
	})
	if err != nil {
		logger.Error("Search failed", "error", err)
		os.Exit(1)
	}
	for _, e := range result.Errors {
		logger.Warn("Site error", "error", e)
	}

	var output interface{} = result
	if *enrich != 0 && len(result.Products) > 0 {
		records, err := svc.EnrichBatch(ctx, result.Products, "", *enrich)
		if err != nil {
			logger.Error("Enrichment failed", "error", err)
			os.Exit(1)
		}
		output = map[string]interface{}{
			"searchId": result.SearchID,
			"products": records,
			"errors":   result.Errors,
			"duration": result.Duration,
		}
	}

	out := os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(output); err != nil {
		logger.Error("Failed to write output", "error", err)
		os.Exit(1)
	}

	logger.Info("Search completed", "products", len(result.Products), "duration_ms", result.Duration)
}
