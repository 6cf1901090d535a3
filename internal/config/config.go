package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Browser  BrowserConfig
	Crawler  CrawlerConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type BrowserConfig struct {
	Headless       bool
	ExecutablePath string
	UserAgent      string
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type CrawlerConfig struct {
	Workers          int
	PrefetchOnSearch bool
	Sites            []string

	NavigationTimeout time.Duration
	PopupTimeout      time.Duration
	SelectorTimeout   time.Duration
	ResultsTimeout    time.Duration

	// RateLimitRPS of zero disables the token bucket; the delay window still
	// applies when set.
	RateLimitRPS   float64
	RateLimitBurst int
	RateLimitMin   time.Duration
	RateLimitMax   time.Duration
}

type CacheConfig struct {
	// Backend is one of memory, file, redis or postgres.
	Backend  string
	FilePath string
	RedisKey string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

type LoggingConfig struct {
	Level  string
	Format string
}

var cacheBackends = []string{"memory", "file", "redis", "postgres"}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", getEnvOrDefault("PORT", "8080")),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 180*time.Second),
			RequestTimeout:  getDurationOrDefault("SERVER_REQUEST_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:*", "https://localhost:*"}),
		},
		Browser: BrowserConfig{
			Headless:       getHeadless(),
			ExecutablePath: getEnvOrDefault("PUPPETEER_EXECUTABLE_PATH", getEnvOrDefault("BROWSER_EXECUTABLE_PATH", "")),
			UserAgent:      getEnvOrDefault("USER_AGENT", getEnvOrDefault("BROWSER_USER_AGENT", defaultUserAgent)),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1280),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 800),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Asia/Seoul"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "ko-KR"),
		},
		Crawler: CrawlerConfig{
			Workers:           getIntOrDefault("CRAWLER_WORKERS", 3),
			PrefetchOnSearch:  getBoolOrDefault("CRAWLER_PREFETCH_ON_SEARCH", true),
			Sites:             getStringSliceOrDefault("CRAWLER_SITES", []string{"domeggook"}),
			NavigationTimeout: getDurationOrDefault("CRAWLER_NAVIGATION_TIMEOUT", 30*time.Second),
			PopupTimeout:      getDurationOrDefault("CRAWLER_POPUP_TIMEOUT", 8*time.Second),
			SelectorTimeout:   getDurationOrDefault("CRAWLER_SELECTOR_TIMEOUT", 10*time.Second),
			ResultsTimeout:    getDurationOrDefault("CRAWLER_RESULTS_TIMEOUT", 15*time.Second),
			RateLimitRPS:      getFloatOrDefault("CRAWLER_RATE_LIMIT_RPS", 2),
			RateLimitBurst:    getIntOrDefault("CRAWLER_RATE_LIMIT_BURST", 3),
			RateLimitMin:      getDurationOrDefault("CRAWLER_RATE_LIMIT_MIN", 0),
			RateLimitMax:      getDurationOrDefault("CRAWLER_RATE_LIMIT_MAX", 500*time.Millisecond),
		},
		Cache: CacheConfig{
			Backend:  strings.ToLower(getEnvOrDefault("CACHE_BACKEND", "memory")),
			FilePath: getEnvOrDefault("CACHE_FILE_PATH", "detail_cache.json"),
			RedisKey: getEnvOrDefault("CACHE_REDIS_KEY", "crawler:detail-cache"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			URL:      getEnvOrDefault("DATABASE_URL", ""),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			Name:     getEnvOrDefault("DB_NAME", "wholesale_crawler"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 10)),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Crawler.Workers < 1 {
		return fmt.Errorf("CRAWLER_WORKERS must be at least 1")
	}

	if c.Crawler.RateLimitRPS < 0 || c.Crawler.RateLimitMin < 0 || c.Crawler.RateLimitMax < 0 {
		return fmt.Errorf("rate limit settings cannot be negative")
	}

	if c.Crawler.RateLimitMin > c.Crawler.RateLimitMax {
		return fmt.Errorf("CRAWLER_RATE_LIMIT_MIN cannot be greater than CRAWLER_RATE_LIMIT_MAX")
	}

	for name, d := range map[string]time.Duration{
		"CRAWLER_NAVIGATION_TIMEOUT": c.Crawler.NavigationTimeout,
		"CRAWLER_POPUP_TIMEOUT":      c.Crawler.PopupTimeout,
		"CRAWLER_SELECTOR_TIMEOUT":   c.Crawler.SelectorTimeout,
		"CRAWLER_RESULTS_TIMEOUT":    c.Crawler.ResultsTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if len(c.Crawler.Sites) == 0 {
		return fmt.Errorf("CRAWLER_SITES must name at least one site")
	}

	if !contains(cacheBackends, c.Cache.Backend) {
		return fmt.Errorf("unknown CACHE_BACKEND %q (want one of %s)", c.Cache.Backend, strings.Join(cacheBackends, ", "))
	}

	if c.Cache.Backend == "file" && c.Cache.FilePath == "" {
		return fmt.Errorf("CACHE_FILE_PATH is required for the file cache")
	}

	return nil
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}

// getHeadless keeps the browser headless unless PUPPETEER_HEADLESS is
// literally "false". BROWSER_HEADLESS is read as a bool when the former is unset.
func getHeadless() bool {
	if value := os.Getenv("PUPPETEER_HEADLESS"); value != "" {
		return !strings.EqualFold(strings.TrimSpace(value), "false")
	}
	return getBoolOrDefault("BROWSER_HEADLESS", true)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
