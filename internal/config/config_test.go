package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Crawler.Workers)
	assert.True(t, cfg.Crawler.PrefetchOnSearch)
	assert.Equal(t, []string{"domeggook"}, cfg.Crawler.Sites)
	assert.Equal(t, 8*time.Second, cfg.Crawler.PopupTimeout)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.True(t, cfg.Browser.Headless)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PUPPETEER_HEADLESS", "false")
	t.Setenv("PUPPETEER_EXECUTABLE_PATH", "/usr/bin/chromium")
	t.Setenv("USER_AGENT", "test-agent")
	t.Setenv("CRAWLER_WORKERS", "5")
	t.Setenv("CRAWLER_SITES", "domeggook, other ,")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("CRAWLER_RATE_LIMIT_RPS", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "/usr/bin/chromium", cfg.Browser.ExecutablePath)
	assert.Equal(t, "test-agent", cfg.Browser.UserAgent)
	assert.Equal(t, 5, cfg.Crawler.Workers)
	assert.Equal(t, []string{"domeggook", "other"}, cfg.Crawler.Sites)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 0.5, cfg.Crawler.RateLimitRPS)
}

func TestPuppeteerHeadless(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"false", false},
		{"FALSE", false},
		{"true", true},
		{"0", true},
		{"no", true},
		{"new", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("PUPPETEER_HEADLESS", tt.value)
			t.Setenv("BROWSER_HEADLESS", "false")

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Browser.Headless)
		})
	}
}

func TestBrowserAliases(t *testing.T) {
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("BROWSER_EXECUTABLE_PATH", "/opt/chrome")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "/opt/chrome", cfg.Browser.ExecutablePath)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CRAWLER_WORKERS", "many")
	t.Setenv("CRAWLER_POPUP_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Crawler.Workers)
	assert.Equal(t, 8*time.Second, cfg.Crawler.PopupTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero workers", func(c *Config) { c.Crawler.Workers = 0 }, "CRAWLER_WORKERS"},
		{"negative delay", func(c *Config) { c.Crawler.RateLimitMin = -time.Second }, "negative"},
		{"inverted delay window", func(c *Config) {
			c.Crawler.RateLimitMin = 2 * time.Second
			c.Crawler.RateLimitMax = time.Second
		}, "CRAWLER_RATE_LIMIT_MIN"},
		{"zero timeout", func(c *Config) { c.Crawler.SelectorTimeout = 0 }, "CRAWLER_SELECTOR_TIMEOUT"},
		{"no sites", func(c *Config) { c.Crawler.Sites = nil }, "CRAWLER_SITES"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, "CACHE_BACKEND"},
		{"file without path", func(c *Config) {
			c.Cache.Backend = "file"
			c.Cache.FilePath = ""
		}, "CACHE_FILE_PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
